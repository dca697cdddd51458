package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type PaymentMethod string

const (
	PaymentUPI            PaymentMethod = "UPI"
	PaymentCard           PaymentMethod = "Card"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentCard, PaymentCashOnDelivery:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// DefaultCountry is applied to addresses that leave the country blank.
const DefaultCountry = "India"

type ShippingAddress struct {
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
	Gender     Gender `json:"gender" bson:"gender"`
	Address    string `json:"address" bson:"address"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// OrderItem is a snapshot of a cart line taken when the order is created.
type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image" bson:"image"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Size      string  `json:"size,omitempty" bson:"size,omitempty"`
}

type PaymentResult struct {
	ID           string `json:"id" bson:"id"`
	Status       string `json:"status" bson:"status"`
	UpdateTime   string `json:"update_time" bson:"update_time"`
	EmailAddress string `json:"email_address" bson:"email_address"`
}

// Owner is the minimal identity of the user an order belongs to.
type Owner struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"_id"`
	User            Owner           `json:"user"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Status derives the lifecycle state from the paid/delivered flags.
func (o *Order) Status() Status {
	switch {
	case o.IsDelivered:
		return StatusDelivered
	case o.IsPaid:
		return StatusPaid
	default:
		return StatusCreated
	}
}

// TrackingView is the part of an order exposed to the public tracking lookup.
// It leaves out the shipping address and the payment result.
type TrackingView struct {
	ID          uuid.UUID   `json:"_id"`
	IsPaid      bool        `json:"isPaid"`
	PaidAt      *time.Time  `json:"paidAt"`
	IsDelivered bool        `json:"isDelivered"`
	DeliveredAt *time.Time  `json:"deliveredAt"`
	OrderItems  []OrderItem `json:"orderItems"`
	TotalPrice  float64     `json:"totalPrice"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func NewTrackingView(o *Order) TrackingView {
	return TrackingView{
		ID:          o.ID,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		IsDelivered: o.IsDelivered,
		DeliveredAt: o.DeliveredAt,
		OrderItems:  o.OrderItems,
		TotalPrice:  o.TotalPrice,
		CreatedAt:   o.CreatedAt,
	}
}

// CreateOrderInput is what a checkout submits.
type CreateOrderInput struct {
	OrderItems      []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	ItemsPrice      float64
	ShippingPrice   float64
	TaxPrice        float64
	TotalPrice      float64
	IdempotencyKey  string
}

// PaymentDetails are recorded by the pay transition. Empty fields get defaults.
type PaymentDetails struct {
	ID           string
	Status       string
	UpdateTime   string
	EmailAddress string
}

// Confirmation is the order-placed message sent to the shopper.
type Confirmation struct {
	OrderID       uuid.UUID     `json:"order_id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	ItemCount     int           `json:"item_count"`
	TotalPrice    float64       `json:"total_price"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
}

func NewConfirmation(o *Order) Confirmation {
	count := 0
	for _, it := range o.OrderItems {
		count += it.Quantity
	}
	return Confirmation{
		OrderID:       o.ID,
		Name:          o.ShippingAddress.Name,
		Email:         o.ShippingAddress.Email,
		Phone:         o.ShippingAddress.Phone,
		ItemCount:     count,
		TotalPrice:    o.TotalPrice,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
	}
}
