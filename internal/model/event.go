package model

import (
	"time"

	"github.com/google/uuid"
)

// Event 活動模型：此服務僅作唯讀協作者使用（發票時需要活動名稱），
// 活動本身的生命週期由上游服務管理
type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
