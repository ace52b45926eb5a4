package payment

import (
	"context"
	"fmt"
	"strings"

	"event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 沙箱用付款方式前綴：decline_ 開頭的付款方式一律被拒，方便對接測試
const declineMethodPrefix = "decline_"

// SandboxGateway 開發/測試用閘道：不打真的金流，行為可預期
type SandboxGateway struct{}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{}
}

func (g *SandboxGateway) ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	log := logger.WithComponent("payment")

	if strings.HasPrefix(req.Method, declineMethodPrefix) {
		log.Info("sandbox payment declined")
		return PaymentResult{
			Success:      false,
			ErrorCode:    "card_declined",
			ErrorMessage: fmt.Sprintf("payment method %s was declined", req.Method),
		}, nil
	}

	return PaymentResult{
		Success:       true,
		TransactionID: "txn_" + uuid.New().String(),
	}, nil
}

func (g *SandboxGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (RefundResult, error) {
	if transactionID == "" {
		return RefundResult{
			Success:      false,
			ErrorMessage: "unknown transaction",
		}, nil
	}

	return RefundResult{
		Success:  true,
		RefundID: "rfd_" + uuid.New().String(),
	}, nil
}
