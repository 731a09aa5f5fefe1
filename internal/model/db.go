package model

import "time"

// User is the projection of the identity directory the core needs for
// relational integrity and message/order enrichment. Authentication itself
// lives with the identity collaborator.
type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:128;not null" json:"name"`
	Email string `gorm:"size:128;uniqueIndex;not null" json:"email"`
	Phone string `gorm:"size:32" json:"phone"`
	Role  string `gorm:"size:16;index;not null;default:customer" json:"role"` // customer, admin, transit

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Roles known to the platform.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleTransit  = "transit"
)

// LineItem is one ordered item descriptor. Stored as part of the order's
// JSON items column, not as its own table.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"qty"`
	Price    int64  `json:"price"`
}

// TimelineStep is one entry of an order's tracking timeline.
type TimelineStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Status      string `json:"status"` // pending, current, completed
	Description string `json:"description,omitempty"`
}

const (
	StepPending   = "pending"
	StepCurrent   = "current"
	StepCompleted = "completed"
)

type Order struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"userId"`
	User   User `json:"user,omitzero"`

	Items           []LineItem     `gorm:"serializer:json" json:"items"`
	TotalAmount     int64          `gorm:"not null" json:"totalAmount"`
	TrackingNumber  string         `gorm:"size:32;uniqueIndex;not null" json:"trackingNumber"`
	Type            string         `gorm:"size:16;index;not null" json:"type"`   // vehicle, product, course
	Status          string         `gorm:"size:16;index;not null" json:"status"` // pending, processing, in_transit, delivered, cancelled
	PaymentStatus   string         `gorm:"size:16;not null" json:"paymentStatus"`
	PaymentMethod   string         `gorm:"size:32" json:"paymentMethod,omitempty"`
	ShippingDetails map[string]any `gorm:"serializer:json" json:"shippingDetails,omitempty"`
	Timeline        []TimelineStep `gorm:"serializer:json" json:"timeline"`
	CurrentStep     int            `gorm:"not null" json:"currentStep"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order types.
const (
	OrderTypeVehicle = "vehicle"
	OrderTypeProduct = "product"
	OrderTypeCourse  = "course"
)

// Order lifecycle statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderInTransit  = "in_transit"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Order payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

// Payment is one settlement attempt. Retries after failure create new rows;
// attempt history is append-only.
type Payment struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"index;not null" json:"userId"`
	OrderID *uint  `gorm:"index" json:"orderId,omitempty"`
	Order   *Order `json:"order,omitempty"`

	Amount        int64          `gorm:"not null" json:"amount"`
	Method        string         `gorm:"size:32;index;not null" json:"method"` // orange_money, visa, paypal, bank_transfer
	Status        string         `gorm:"size:16;index;not null" json:"status"` // pending, completed, failed, refunded
	TransactionID *string        `gorm:"size:64;uniqueIndex" json:"transactionId,omitempty"`
	Reference     string         `gorm:"size:64" json:"reference,omitempty"`
	ErrorMessage  string         `gorm:"size:255" json:"errorMessage,omitempty"`
	Metadata      map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payment methods.
const (
	MethodOrangeMoney  = "orange_money"
	MethodVisa         = "visa"
	MethodPaypal       = "paypal"
	MethodBankTransfer = "bank_transfer"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Message is one unit of chat. Direct messages carry a receiver, room
// messages carry a room id; history is permanent.
type Message struct {
	ID         uint  `gorm:"primaryKey" json:"id"`
	SenderID   uint  `gorm:"index;not null" json:"senderId"`
	Sender     User  `json:"sender,omitzero"`
	ReceiverID *uint `gorm:"index" json:"receiverId,omitempty"`
	Receiver   *User `json:"receiver,omitempty"`

	RoomID   *string        `gorm:"size:64;index" json:"roomId,omitempty"`
	Content  string         `gorm:"type:text;not null" json:"content"`
	Read     bool           `gorm:"column:is_read;not null;default:false" json:"read"`
	Type     string         `gorm:"size:16;not null;default:text" json:"type"` // text, image, file, system
	Metadata map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message types.
const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// AllModels lists every entity AutoMigrate must cover, in FK order.
func AllModels() []any {
	return []any{&User{}, &Order{}, &Payment{}, &Message{}}
}
