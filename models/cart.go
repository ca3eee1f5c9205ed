package models

import "time"

// CartLine is one item in a cart. (CartID, ItemID) is unique.
// Discount is the stacked percentage; FinalPrice is the discounted unit price.
type CartLine struct {
	ID          string    `json:"id" bson:"_id"`
	CartID      string    `json:"cart_id" bson:"cart_id"`
	CustomerID  string    `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	GuestUserID string    `json:"guest_user_id,omitempty" bson:"guest_user_id,omitempty"`
	ItemID      string    `json:"item_id" bson:"item_id"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	MRPPrice    float64   `json:"mrp_price" bson:"mrp_price"`
	Discount    float64   `json:"discount" bson:"discount"`
	FinalPrice  float64   `json:"final_price" bson:"final_price"`
	TotalPrice  float64   `json:"total_price" bson:"total_price"`
	CreatedAt   time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt   time.Time `json:"updated_datetime" bson:"updated_datetime"`
}
