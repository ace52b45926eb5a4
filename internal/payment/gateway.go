package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRequest 扣款請求
type PaymentRequest struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  string
}

// PaymentResult 閘道扣款結果。Success=false 表示閘道拒絕（卡片被拒等），
// 不是基礎設施錯誤：後者走 error 回傳
type PaymentResult struct {
	Success       bool
	TransactionID string
	ErrorCode     string
	ErrorMessage  string
}

// RefundResult 閘道退款結果
type RefundResult struct {
	Success      bool
	RefundID     string
	ErrorMessage string
}

// Gateway 金流閘道契約：同步呼叫，慢的閘道會卡住整個付款操作
type Gateway interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (RefundResult, error)
}
