package apperrors

import (
	"errors"
	"fmt"
)

// Kind 錯誤分類：handler 依 Kind 對應 HTTP status，不做字串比對
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// Error 帶分類的領域錯誤
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 包住底層錯誤並標上分類, errors.Is / errors.As 可穿透
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf 取出錯誤的分類，非 *Error 一律視為 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// 固定的領域錯誤（sentinel），呼叫端用 errors.Is 判斷
var (
	ErrInsufficientStock      = New(KindConflict, "insufficient stock")
	ErrTicketTypeNotAvailable = New(KindConflict, "ticket type is not available for sale")
	ErrTicketTypeNotFound     = New(KindNotFound, "ticket type not found")
	ErrEventNotFound          = New(KindNotFound, "event not found")
	ErrReservationNotFound    = New(KindNotFound, "reservation not found")
	ErrOrderNotFound          = New(KindNotFound, "order not found")
	ErrTicketNotFound         = New(KindNotFound, "ticket not found")
	ErrOrderAlreadyExists     = New(KindConflict, "order already exists for this reservation")
	ErrTicketAlreadyUsed      = New(KindConflict, "ticket already used")
	ErrTicketCancelled        = New(KindConflict, "ticket is cancelled")
	ErrReservationNotActive   = New(KindConflict, "reservation is not active")
	ErrOrderNotPending        = New(KindConflict, "order payment is not pending")
	ErrOrderNotPaid           = New(KindConflict, "order is not paid")
	ErrInvalidInput           = New(KindValidation, "invalid input")
	ErrInternalServerError    = New(KindInternal, "internal server error")
)
