package models

import "time"

// DateLayout is the wire format of offline order dates.
const DateLayout = "2006-01-02"

type OfflinePaymentStatus string

const (
	OfflinePaid    OfflinePaymentStatus = "Paid"
	OfflineUnpaid  OfflinePaymentStatus = "Unpaid"
	OfflinePartial OfflinePaymentStatus = "Partial"
)

func (s OfflinePaymentStatus) Valid() bool {
	return s == OfflinePaid || s == OfflineUnpaid || s == OfflinePartial
}

type OfflinePaymentMethod string

const (
	OfflineCash         OfflinePaymentMethod = "Cash"
	OfflineBankTransfer OfflinePaymentMethod = "Bank Transfer"
	OfflineUPI          OfflinePaymentMethod = "UPI"
)

func (m OfflinePaymentMethod) Valid() bool {
	return m == OfflineCash || m == OfflineBankTransfer || m == OfflineUPI
}

type OfflineLine struct {
	ItemID     string  `json:"item_id" bson:"item_id"`
	ItemName   string  `json:"item_name" bson:"item_name"`
	ItemPrice  float64 `json:"item_price" bson:"item_price"`
	Discount   float64 `json:"discount" bson:"discount"`
	FinalPrice float64 `json:"final_price" bson:"final_price"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	LineTotal  float64 `json:"line_total" bson:"line_total"`
}

// OfflineOrder is an in-store sale. Discount is an overall percentage applied
// on top of the per-line discounted subtotal.
type OfflineOrder struct {
	ID              string               `json:"id" bson:"_id"`
	CustomerName    string               `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	CustomerPhone   string               `json:"customer_phone,omitempty" bson:"customer_phone,omitempty"`
	CustomerAddress string               `json:"customer_address,omitempty" bson:"customer_address,omitempty"`
	OrderDate       string               `json:"order_date" bson:"order_date"`
	DeliveryDate    string               `json:"delivery_date,omitempty" bson:"delivery_date,omitempty"`
	PaymentStatus   OfflinePaymentStatus `json:"payment_status" bson:"payment_status"`
	PaymentMethod   OfflinePaymentMethod `json:"payment_method" bson:"payment_method"`
	TotalAmount     float64              `json:"total_amount" bson:"total_amount"`
	Discount        float64              `json:"discount" bson:"discount"`
	AmountPaid      float64              `json:"amount_paid" bson:"amount_paid"`
	BalanceDue      float64              `json:"balance_due" bson:"balance_due"`
	CreatedBy       string               `json:"created_by" bson:"created_by"`
	Notes           string               `json:"notes,omitempty" bson:"notes,omitempty"`
	Items           []OfflineLine        `json:"items" bson:"items"`
	IsReturned      bool                 `json:"is_returned" bson:"is_returned"`
	CreatedAt       time.Time            `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt       time.Time            `json:"updated_datetime" bson:"updated_datetime"`
}

// OfflineOrderPatch carries the editable header fields of an offline order.
// Items are replaced through a separate path because they move stock.
type OfflineOrderPatch struct {
	CustomerName    *string               `json:"customer_name"`
	CustomerPhone   *string               `json:"customer_phone"`
	CustomerAddress *string               `json:"customer_address"`
	DeliveryDate    *string               `json:"delivery_date"`
	PaymentStatus   *OfflinePaymentStatus `json:"payment_status"`
	PaymentMethod   *OfflinePaymentMethod `json:"payment_method"`
	Discount        *float64              `json:"discount"`
	AmountPaid      *float64              `json:"amount_paid"`
	Notes           *string               `json:"notes"`
}

func (p OfflineOrderPatch) Apply(o *OfflineOrder) {
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = *p.CustomerPhone
	}
	if p.CustomerAddress != nil {
		o.CustomerAddress = *p.CustomerAddress
	}
	if p.DeliveryDate != nil {
		o.DeliveryDate = *p.DeliveryDate
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.Discount != nil {
		o.Discount = *p.Discount
	}
	if p.AmountPaid != nil {
		o.AmountPaid = *p.AmountPaid
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}
