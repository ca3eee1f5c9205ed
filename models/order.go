package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusAccepted  OrderStatus = "Accepted"
	StatusDeclined  OrderStatus = "Declined"
	StatusCompleted OrderStatus = "Completed"
	StatusReturned  OrderStatus = "Returned"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCompleted, StatusReturned:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "Online"
	PaymentCOD    PaymentMethod = "Cash On Delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCOD
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentSuccess PaymentStatus = "Success"
	PaymentFailed  PaymentStatus = "Failed"
)

// OrderLine is a snapshot taken at checkout. It never follows later catalog edits.
type OrderLine struct {
	ItemID             string  `json:"item_id" bson:"item_id"`
	ItemName           string  `json:"item_name" bson:"item_name"`
	MRPPrice           float64 `json:"mrp_price" bson:"mrp_price"`
	UnitPrice          float64 `json:"unit_price" bson:"unit_price"`
	Discount           float64 `json:"discount" bson:"discount"`
	AdditionalDiscount float64 `json:"additional_discount" bson:"additional_discount"`
	Quantity           int     `json:"quantity" bson:"quantity"`
	TotalPrice         float64 `json:"total_price" bson:"total_price"`
	ProductImage       string  `json:"product_image,omitempty" bson:"product_image,omitempty"`
	Note               string  `json:"note,omitempty" bson:"note,omitempty"`
}

type Order struct {
	ID                string        `json:"id" bson:"_id"`
	UserID            string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	GuestUserID       string        `json:"guest_user_id,omitempty" bson:"guest_user_id,omitempty"`
	TotalPrice        float64       `json:"total_price" bson:"total_price"`
	Items             []OrderLine   `json:"items" bson:"items"`
	OrderStatus       OrderStatus   `json:"order_status" bson:"order_status"`
	PaymentMethod     PaymentMethod `json:"payment_method" bson:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status" bson:"payment_status"`
	IsPaid            bool          `json:"is_paid" bson:"is_paid"`
	RazorpayOrderID   string        `json:"razorpay_order_id,omitempty" bson:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string        `json:"razorpay_payment_id,omitempty" bson:"razorpay_payment_id,omitempty"`
	RazorpaySignature string        `json:"razorpay_signature,omitempty" bson:"razorpay_signature,omitempty"`
	Reason            string        `json:"reason,omitempty" bson:"reason,omitempty"`
	Address           string        `json:"address" bson:"address"`
	City              string        `json:"city" bson:"city"`
	State             string        `json:"state" bson:"state"`
	CreatedAt         time.Time     `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt         time.Time     `json:"updated_datetime" bson:"updated_datetime"`
}
