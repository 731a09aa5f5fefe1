package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/model"
	"mdla-platform/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const trackingAttempts = 5

// TrackingCodeFunc generates candidate tracking codes. Injectable so tests
// can force collisions and deterministic codes.
type TrackingCodeFunc func() string

// DefaultTrackingCode returns codes like MDLA-0482915736.
func DefaultTrackingCode() string {
	return fmt.Sprintf("MDLA-%010d", rand.Int63n(1e10))
}

type OrderService interface {
	Create(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, req *dto.UpdateOrderStatusRequest) (*model.Order, error)
	GetByTracking(ctx context.Context, trackingNumber string) (*model.Order, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
}

type orderServiceImpl struct {
	orderRepo         repository.OrderRepository
	trackingCode      TrackingCodeFunc
	legacyPaidDefault bool
	logger            zerolog.Logger
}

type OrderServiceOption func(*orderServiceImpl)

// WithTrackingCodeFunc overrides tracking-code generation.
func WithTrackingCodeFunc(fn TrackingCodeFunc) OrderServiceOption {
	return func(s *orderServiceImpl) { s.trackingCode = fn }
}

// WithLegacyPaidDefault makes new orders start paid, matching the original
// platform. Off by default; new orders start unpaid.
func WithLegacyPaidDefault(enabled bool) OrderServiceOption {
	return func(s *orderServiceImpl) { s.legacyPaidDefault = enabled }
}

func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger, opts ...OrderServiceOption) OrderService {
	s := &orderServiceImpl{
		orderRepo:    orderRepo,
		trackingCode: DefaultTrackingCode,
		logger:       logger.With().Str("service", "order").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *orderServiceImpl) Create(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, model.NewValidationError("order must contain at least one item")
	}

	paymentStatus := model.PaymentUnpaid
	if s.legacyPaidDefault {
		paymentStatus = model.PaymentPaid
	}

	order := &model.Order{
		UserID:          userID,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		Type:            req.Type,
		Status:          model.OrderProcessing,
		PaymentStatus:   paymentStatus,
		PaymentMethod:   req.PaymentMethod,
		ShippingDetails: req.ShippingDetails,
		Timeline:        timelineTemplate(req.Type),
		CurrentStep:     1,
	}

	// Tracking codes are checked for uniqueness and regenerated on collision
	// rather than trusting the random suffix. The unique index on
	// tracking_number is the real arbiter: a concurrent create that wins the
	// insert race surfaces here as a duplicate-key error and consumes a retry
	// like any other collision.
	var created bool
	for attempt := 0; attempt < trackingAttempts; attempt++ {
		code := s.trackingCode()
		exists, err := s.orderRepo.TrackingNumberExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check tracking number: %w", err)
		}
		if exists {
			s.logger.Warn().Str("tracking_number", code).Msg("tracking code collision, retrying")
			continue
		}
		order.TrackingNumber = code
		if err := s.orderRepo.Create(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				s.logger.Warn().Str("tracking_number", code).Msg("tracking code collision, retrying")
				continue
			}
			return nil, fmt.Errorf("create order: %w", err)
		}
		created = true
		break
	}
	if !created {
		return nil, model.NewConflictError("could not allocate a unique tracking number")
	}

	s.logger.Info().
		Uint("order_id", order.ID).
		Str("tracking_number", order.TrackingNumber).
		Str("type", order.Type).
		Int64("total_amount", order.TotalAmount).
		Msg("order created")

	return order, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID uint, req *dto.UpdateOrderStatusRequest) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	// Partial update: absent fields keep their stored value.
	if req.Status != nil {
		if !validOrderStatus(*req.Status) {
			return nil, model.NewValidationError(fmt.Sprintf("unknown order status %q", *req.Status))
		}
		order.Status = *req.Status
	}
	if req.Timeline != nil {
		order.Timeline = req.Timeline
	}
	if req.CurrentStep != nil {
		order.CurrentStep = *req.CurrentStep
	}

	if err := validateTimeline(order.Timeline, order.CurrentStep); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.logger.Info().
		Uint("order_id", order.ID).
		Str("status", order.Status).
		Int("current_step", order.CurrentStep).
		Msg("order status updated")

	return order, nil
}

func (s *orderServiceImpl) GetByTracking(ctx context.Context, trackingNumber string) (*model.Order, error) {
	order, err := s.orderRepo.FindByTracking(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("no order with that tracking number")
		}
		return nil, fmt.Errorf("find order by tracking: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// timelineTemplate returns the tracking steps for an order type: six for
// vehicle imports, four for everything else. Step 1 starts current.
func timelineTemplate(orderType string) []model.TimelineStep {
	var titles []string
	if orderType == model.OrderTypeVehicle {
		titles = []string{
			"Order Placed",
			"Payment Confirmed",
			"Vehicle Sourced",
			"Shipped",
			"In Transit",
			"Delivered",
		}
	} else {
		titles = []string{
			"Order Placed",
			"Processing",
			"Shipped",
			"Delivered",
		}
	}

	steps := make([]model.TimelineStep, len(titles))
	for i, title := range titles {
		status := model.StepPending
		if i == 0 {
			status = model.StepCurrent
		}
		steps[i] = model.TimelineStep{Step: i + 1, Title: title, Status: status}
	}
	return steps
}

// validateTimeline rejects writes that would leave the timeline
// inconsistent: steps must be contiguous from 1, at most one step may be
// current, and currentStep must reference an existing step.
func validateTimeline(timeline []model.TimelineStep, currentStep int) error {
	if len(timeline) == 0 {
		return model.NewValidationError("timeline must not be empty")
	}

	currents := 0
	for i, step := range timeline {
		if step.Step != i+1 {
			return model.NewValidationError("timeline steps must be contiguous starting at 1")
		}
		switch step.Status {
		case model.StepPending, model.StepCompleted:
		case model.StepCurrent:
			currents++
		default:
			return model.NewValidationError(fmt.Sprintf("unknown timeline step status %q", step.Status))
		}
	}
	if currents > 1 {
		return model.NewValidationError("at most one timeline step may be current")
	}
	if currentStep < 1 || currentStep > len(timeline) {
		return model.NewValidationError("currentStep must reference an existing timeline step")
	}
	return nil
}

func validOrderStatus(status string) bool {
	switch status {
	case model.OrderPending, model.OrderProcessing, model.OrderInTransit,
		model.OrderDelivered, model.OrderCancelled:
		return true
	}
	return false
}
