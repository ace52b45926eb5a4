package repository

import "errors"

// ErrNoRowsUpdated 守衛式更新沒有命中任何列：目標不存在或狀態前提不成立，
// 由呼叫端重查分辨
var ErrNoRowsUpdated = errors.New("no rows updated")
