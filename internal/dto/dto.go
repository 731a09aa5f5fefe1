package dto

import "mdla-platform/internal/model"

type CreateOrderRequest struct {
	Items           []model.LineItem `json:"items"`
	TotalAmount     int64            `json:"totalAmount"`
	Type            string           `json:"type"`
	ShippingDetails map[string]any   `json:"shippingDetails"`
	PaymentMethod   string           `json:"paymentMethod"`
}

// UpdateOrderStatusRequest is a partial update: nil fields are untouched.
type UpdateOrderStatusRequest struct {
	Status      *string              `json:"status"`
	CurrentStep *int                 `json:"currentStep"`
	Timeline    []model.TimelineStep `json:"timeline"`
}

type ProcessPaymentRequest struct {
	OrderID  *uint          `json:"orderId"`
	Amount   int64          `json:"amount"`
	Method   string         `json:"method"`
	Metadata map[string]any `json:"metadata"`
}

type ProcessPaymentResponse struct {
	Success bool           `json:"success"`
	Payment *model.Payment `json:"payment,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type CalculateFeesRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type FeeBreakdown struct {
	Subtotal int64 `json:"subtotal"`
	Fees     int64 `json:"fees"`
	Total    int64 `json:"total"`
}

type SendMessageRequest struct {
	ReceiverID *uint          `json:"receiverId"`
	RoomID     *string        `json:"roomId"`
	Content    string         `json:"content"`
	Type       string         `json:"type"`
	Metadata   map[string]any `json:"metadata"`
}

// ConversationSummary is the derived per-counterpart chat overview.
type ConversationSummary struct {
	Counterpart model.User    `json:"counterpart"`
	LastMessage model.Message `json:"lastMessage"`
	UnreadCount int           `json:"unreadCount"`
}
