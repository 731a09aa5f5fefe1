package service

import (
	"context"
	"errors"
	"fmt"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/gateway"
	"mdla-platform/internal/model"
	"mdla-platform/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fee rate per payment method. Unknown methods carry no fee.
var feeRates = map[string]decimal.Decimal{
	model.MethodOrangeMoney:  decimal.NewFromFloat(0.015),
	model.MethodVisa:         decimal.NewFromFloat(0.025),
	model.MethodPaypal:       decimal.NewFromFloat(0.029),
	model.MethodBankTransfer: decimal.NewFromFloat(0.010),
}

type PaymentService interface {
	Process(ctx context.Context, userID uint, req *dto.ProcessPaymentRequest) (*model.Payment, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
}

type paymentServiceImpl struct {
	db          *gorm.DB
	gw          gateway.Gateway
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	logger      zerolog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	gw gateway.Gateway,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	logger zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:          db,
		gw:          gw,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// Process runs one settlement attempt. The payment row is created pending,
// the gateway is charged outside any transaction, and the outcome is
// persisted so the row never stays pending after this returns. A completed
// payment and its order's paid flag commit atomically.
func (s *paymentServiceImpl) Process(ctx context.Context, userID uint, req *dto.ProcessPaymentRequest) (*model.Payment, error) {
	if req.Amount <= 0 {
		return nil, model.NewValidationError("amount must be positive")
	}
	if req.Method == "" {
		return nil, model.NewValidationError("payment method is required")
	}

	if req.OrderID != nil {
		if _, err := s.orderRepo.FindByID(ctx, *req.OrderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, model.NewNotFoundError("order not found")
			}
			return nil, fmt.Errorf("find order: %w", err)
		}
	}

	payment := &model.Payment{
		UserID:   userID,
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Method:   req.Method,
		Status:   model.PaymentStatusPending,
		Metadata: req.Metadata,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	result, err := s.gw.Charge(ctx, req.Method, req.Amount, req.Metadata)

	// The request context may have died during the charge. Settlement writes
	// run detached from it so the row still reaches a terminal state.
	settleCtx := context.WithoutCancel(ctx)

	if err != nil {
		return s.settleFailed(settleCtx, payment, err)
	}

	err = s.db.WithContext(settleCtx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.MarkCompleted(settleCtx, tx, payment.ID, result.TransactionID, result.Reference); err != nil {
			return fmt.Errorf("mark payment completed: %w", err)
		}
		if payment.OrderID != nil {
			if err := s.orderRepo.SetPaymentStatus(settleCtx, tx, *payment.OrderID, model.PaymentPaid); err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// The charge went through but we could not record it. Drive the row
		// to a terminal state anyway and surface the reconciliation failure.
		s.logger.Error().Err(err).Uint("payment_id", payment.ID).Msg("failed to record completed charge")
		if ferr := s.paymentRepo.MarkFailed(settleCtx, payment.ID, "reconciliation_failed"); ferr != nil {
			s.logger.Error().Err(ferr).Uint("payment_id", payment.ID).Msg("payment left unreconciled")
		}
		return nil, fmt.Errorf("record completed charge: %w", err)
	}

	payment.Status = model.PaymentStatusCompleted
	payment.TransactionID = &result.TransactionID
	payment.Reference = result.Reference

	s.logger.Info().
		Uint("payment_id", payment.ID).
		Str("method", payment.Method).
		Int64("amount", payment.Amount).
		Str("transaction_id", result.TransactionID).
		Msg("payment completed")

	return payment, nil
}

// settleFailed drives a pending payment to failed and reports the gateway
// outcome as a business failure. The order, if any, is left untouched.
func (s *paymentServiceImpl) settleFailed(ctx context.Context, payment *model.Payment, cause error) (*model.Payment, error) {
	reason := gatewayFailureReason(cause)

	if err := s.paymentRepo.MarkFailed(ctx, payment.ID, reason); err != nil {
		s.logger.Error().Err(err).Uint("payment_id", payment.ID).Msg("failed to mark payment failed")
	}
	payment.Status = model.PaymentStatusFailed
	payment.ErrorMessage = reason

	s.logger.Warn().
		Uint("payment_id", payment.ID).
		Str("method", payment.Method).
		Str("reason", reason).
		Msg("payment failed")

	return payment, model.NewGatewayError(reason)
}

func gatewayFailureReason(err error) string {
	var decline *gateway.DeclineError
	switch {
	case errors.As(err, &decline):
		return decline.Reason
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return err.Error()
	}
}

func (s *paymentServiceImpl) ListForUser(ctx context.Context, userID uint) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *paymentServiceImpl) ListAll(ctx context.Context) ([]model.Payment, error) {
	payments, err := s.paymentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return payments, nil
}

// CalculateFees breaks an amount down into subtotal, method fee and total.
// Pure: no persistence, no side effects. The fee is rounded to the nearest
// currency unit before summing.
func CalculateFees(amount int64, method string) dto.FeeBreakdown {
	rate, ok := feeRates[method]
	if !ok {
		rate = decimal.Zero
	}

	fee := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return dto.FeeBreakdown{
		Subtotal: amount,
		Fees:     fee,
		Total:    amount + fee,
	}
}
