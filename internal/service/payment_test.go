package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/gateway"
	"mdla-platform/internal/model"
	"mdla-platform/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubGateway forces a charge outcome without timers or randomness.
type stubGateway struct {
	result *gateway.ChargeResult
	err    error
	calls  int
}

func (g *stubGateway) Charge(ctx context.Context, method string, amount int64, metadata map[string]any) (*gateway.ChargeResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

// gatewayFunc adapts a plain function to the Gateway interface.
type gatewayFunc func(ctx context.Context, method string, amount int64, metadata map[string]any) (*gateway.ChargeResult, error)

func (f gatewayFunc) Charge(ctx context.Context, method string, amount int64, metadata map[string]any) (*gateway.ChargeResult, error) {
	return f(ctx, method, amount, metadata)
}

type paymentFixture struct {
	db       *gorm.DB
	payments PaymentService
	orders   OrderService
}

func newPaymentFixture(t *testing.T, gw gateway.Gateway) *paymentFixture {
	t.Helper()
	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	return &paymentFixture{
		db:       db,
		payments: NewPaymentService(db, gw, paymentRepo, orderRepo, zerolog.Nop()),
		orders:   NewOrderService(orderRepo, zerolog.Nop()),
	}
}

func (f *paymentFixture) storedPayment(t *testing.T, id uint) *model.Payment {
	t.Helper()
	var payment model.Payment
	require.NoError(t, f.db.First(&payment, id).Error)
	return &payment
}

func TestPaymentService_Process_Success(t *testing.T) {
	gw := &stubGateway{result: &gateway.ChargeResult{TransactionID: "TXN-abc", Reference: "REF-1"}}
	f := newPaymentFixture(t, gw)

	payment, err := f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		Amount: 10000,
		Method: model.MethodVisa,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.TransactionID)
	assert.Equal(t, "TXN-abc", *payment.TransactionID)
	assert.Equal(t, 1, gw.calls)

	stored := f.storedPayment(t, payment.ID)
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)
}

func TestPaymentService_Process_DeclineIsTerminalFailure(t *testing.T) {
	gw := &stubGateway{err: &gateway.DeclineError{Reason: "card_declined"}}
	f := newPaymentFixture(t, gw)

	payment, err := f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		Amount: 10000,
		Method: model.MethodVisa,
	})

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeGateway, domainErr.Code)
	assert.Equal(t, "card_declined", domainErr.Message)

	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "card_declined", payment.ErrorMessage)

	// Terminal-state law: the stored row never stays pending.
	stored := f.storedPayment(t, payment.ID)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "card_declined", stored.ErrorMessage)
}

func TestPaymentService_Process_TimeoutIsTerminalFailure(t *testing.T) {
	gw := &stubGateway{err: context.DeadlineExceeded}
	f := newPaymentFixture(t, gw)

	payment, err := f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		Amount: 500,
		Method: model.MethodBankTransfer,
	})

	require.Error(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "timeout", payment.ErrorMessage)

	stored := f.storedPayment(t, payment.ID)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
}

func TestPaymentService_Process_RequestDeadlineDuringChargeStillSettles(t *testing.T) {
	// The gateway holds the charge until the request deadline fires, so every
	// write after it runs against an already-dead request context.
	gw := gatewayFunc(func(ctx context.Context, method string, amount int64, metadata map[string]any) (*gateway.ChargeResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f := newPaymentFixture(t, gw)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	payment, err := f.payments.Process(ctx, 1, &dto.ProcessPaymentRequest{
		Amount: 750,
		Method: model.MethodVisa,
	})

	require.Error(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "timeout", payment.ErrorMessage)

	stored := f.storedPayment(t, payment.ID)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "timeout", stored.ErrorMessage)
}

func TestPaymentService_Process_RequestCancelledAfterChargeStillCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The caller goes away in the instant the charge succeeds. The completed
	// charge and the order's paid flag must land regardless.
	gw := gatewayFunc(func(context.Context, string, int64, map[string]any) (*gateway.ChargeResult, error) {
		cancel()
		return &gateway.ChargeResult{TransactionID: "TXN-raced", Reference: "REF-raced"}, nil
	})
	f := newPaymentFixture(t, gw)

	order, err := f.orders.Create(context.Background(), 1, productOrderRequest())
	require.NoError(t, err)

	payment, err := f.payments.Process(ctx, 1, &dto.ProcessPaymentRequest{
		OrderID: &order.ID,
		Amount:  order.TotalAmount,
		Method:  model.MethodVisa,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)

	stored := f.storedPayment(t, payment.ID)
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)

	var reloaded model.Order
	require.NoError(t, f.db.First(&reloaded, order.ID).Error)
	assert.Equal(t, model.PaymentPaid, reloaded.PaymentStatus)
}

func TestPaymentService_Process_CompletedPaymentMarksOrderPaid(t *testing.T) {
	gw := &stubGateway{result: &gateway.ChargeResult{TransactionID: "TXN-def", Reference: "REF-2"}}
	f := newPaymentFixture(t, gw)

	order, err := f.orders.Create(context.Background(), 1, productOrderRequest())
	require.NoError(t, err)
	require.Equal(t, model.PaymentUnpaid, order.PaymentStatus)

	_, err = f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		OrderID: &order.ID,
		Amount:  order.TotalAmount,
		Method:  model.MethodOrangeMoney,
	})
	require.NoError(t, err)

	var reloaded model.Order
	require.NoError(t, f.db.First(&reloaded, order.ID).Error)
	assert.Equal(t, model.PaymentPaid, reloaded.PaymentStatus)
}

func TestPaymentService_Process_FailedPaymentLeavesOrderUntouched(t *testing.T) {
	gw := &stubGateway{err: &gateway.DeclineError{Reason: "insufficient_balance"}}
	f := newPaymentFixture(t, gw)

	order, err := f.orders.Create(context.Background(), 1, productOrderRequest())
	require.NoError(t, err)

	_, err = f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		OrderID: &order.ID,
		Amount:  order.TotalAmount,
		Method:  model.MethodOrangeMoney,
	})
	require.Error(t, err)

	var reloaded model.Order
	require.NoError(t, f.db.First(&reloaded, order.ID).Error)
	assert.Equal(t, model.PaymentUnpaid, reloaded.PaymentStatus)
}

func TestPaymentService_Process_RetryCreatesNewAttempt(t *testing.T) {
	gw := &stubGateway{err: &gateway.DeclineError{Reason: "card_declined"}}
	f := newPaymentFixture(t, gw)

	req := &dto.ProcessPaymentRequest{Amount: 2500, Method: model.MethodVisa}
	first, err := f.payments.Process(context.Background(), 1, req)
	require.Error(t, err)

	gw.err = nil
	gw.result = &gateway.ChargeResult{TransactionID: "TXN-retry", Reference: "REF-3"}
	second, err := f.payments.Process(context.Background(), 1, req)
	require.NoError(t, err)

	// Append-only attempt history: two rows, one per attempt.
	assert.NotEqual(t, first.ID, second.ID)
	var count int64
	require.NoError(t, f.db.Model(&model.Payment{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestPaymentService_Process_UnknownOrder(t *testing.T) {
	gw := &stubGateway{}
	f := newPaymentFixture(t, gw)

	missing := uint(404)
	_, err := f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{
		OrderID: &missing,
		Amount:  100,
		Method:  model.MethodVisa,
	})

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeNotFound, domainErr.Code)
	// No payment row and no gateway call for a bad reference.
	assert.Equal(t, 0, gw.calls)
}

func TestPaymentService_Process_InvalidInput(t *testing.T) {
	f := newPaymentFixture(t, &stubGateway{})

	_, err := f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{Amount: 0, Method: model.MethodVisa})
	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeValidation, domainErr.Code)

	_, err = f.payments.Process(context.Background(), 1, &dto.ProcessPaymentRequest{Amount: 100})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
}

func TestPaymentService_ListForUser_NewestFirst(t *testing.T) {
	gw := &stubGateway{result: &gateway.ChargeResult{TransactionID: "TXN-1", Reference: "REF"}}
	f := newPaymentFixture(t, gw)

	_, err := f.payments.Process(context.Background(), 3, &dto.ProcessPaymentRequest{Amount: 100, Method: model.MethodVisa})
	require.NoError(t, err)

	gw.result = &gateway.ChargeResult{TransactionID: "TXN-2", Reference: "REF"}
	second, err := f.payments.Process(context.Background(), 3, &dto.ProcessPaymentRequest{Amount: 200, Method: model.MethodPaypal})
	require.NoError(t, err)

	payments, err := f.payments.ListForUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, second.ID, payments[0].ID)
}

func TestCalculateFees(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		method string
		fees   int64
	}{
		{"orange money 1.5%", 10000, model.MethodOrangeMoney, 150},
		{"visa 2.5%", 10000, model.MethodVisa, 250},
		{"paypal 2.9%", 10000, model.MethodPaypal, 290},
		{"bank transfer 1.0%", 10000, model.MethodBankTransfer, 100},
		{"unknown method 0%", 10000, "cowries", 0},
		{"rounds to nearest unit", 999, model.MethodOrangeMoney, 15},
		{"zero amount", 0, model.MethodVisa, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateFees(tc.amount, tc.method)
			assert.Equal(t, tc.amount, got.Subtotal)
			assert.Equal(t, tc.fees, got.Fees)
			assert.Equal(t, got.Subtotal+got.Fees, got.Total)

			// Pure: identical inputs, identical outputs.
			assert.Equal(t, got, CalculateFees(tc.amount, tc.method))
		})
	}
}

func TestGatewayFailureReason(t *testing.T) {
	assert.Equal(t, "card_declined", gatewayFailureReason(&gateway.DeclineError{Reason: "card_declined"}))
	assert.Equal(t, "timeout", gatewayFailureReason(context.DeadlineExceeded))
	assert.Equal(t, "timeout", gatewayFailureReason(context.Canceled))
	assert.Equal(t, "boom", gatewayFailureReason(errors.New("boom")))
}
