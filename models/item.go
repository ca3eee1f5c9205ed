package models

import "time"

// Item is a catalog entry. ItemPrice is the MRP; Quantity is the stock on hand.
type Item struct {
	ID               string    `json:"id" bson:"_id"`
	CategoryID       string    `json:"category_id" bson:"category_id"`
	ItemName         string    `json:"item_name" bson:"item_name"`
	ItemPrice        float64   `json:"item_price" bson:"item_price"`
	Discount         *float64  `json:"discount,omitempty" bson:"discount,omitempty"`
	FinalPrice       float64   `json:"final_price" bson:"final_price"`
	Kg               float64   `json:"kg" bson:"kg"`
	Quality          string    `json:"quality" bson:"quality"`
	ProductImage     string    `json:"product_image,omitempty" bson:"product_image,omitempty"`
	AdditionalImages []string  `json:"additional_images" bson:"additional_images"`
	Quantity         int       `json:"quantity" bson:"quantity"`
	Description      string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt        time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt        time.Time `json:"updated_datetime" bson:"updated_datetime"`
}

// BaseDiscount is the item's own discount, zero when unset.
func (it Item) BaseDiscount() float64 {
	if it.Discount == nil {
		return 0
	}
	return *it.Discount
}

type Category struct {
	ID           string    `json:"id" bson:"_id"`
	VendorID     string    `json:"vendor_id" bson:"vendor_id"`
	CategoryName string    `json:"category_name" bson:"category_name"`
	CreatedAt    time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt    time.Time `json:"updated_datetime" bson:"updated_datetime"`
}

// CategoryWithItems is the nested listing served to storefront menus.
type CategoryWithItems struct {
	Category
	Items []Item `json:"items"`
}

// ItemPatch lists the vendor-editable item fields.
type ItemPatch struct {
	CategoryID       *string   `json:"category_id"`
	ItemName         *string   `json:"item_name"`
	ItemPrice        *float64  `json:"item_price"`
	Discount         *float64  `json:"discount"`
	FinalPrice       *float64  `json:"final_price"`
	Kg               *float64  `json:"kg"`
	Quality          *string   `json:"quality"`
	ProductImage     *string   `json:"product_image"`
	AdditionalImages *[]string `json:"additional_images"`
	Quantity         *int      `json:"quantity"`
	Description      *string   `json:"description"`
}

func (p ItemPatch) Apply(it *Item) {
	if p.CategoryID != nil {
		it.CategoryID = *p.CategoryID
	}
	if p.ItemName != nil {
		it.ItemName = *p.ItemName
	}
	if p.ItemPrice != nil {
		it.ItemPrice = *p.ItemPrice
	}
	if p.Discount != nil {
		d := *p.Discount
		it.Discount = &d
	}
	if p.FinalPrice != nil {
		it.FinalPrice = *p.FinalPrice
	}
	if p.Kg != nil {
		it.Kg = *p.Kg
	}
	if p.Quality != nil {
		it.Quality = *p.Quality
	}
	if p.ProductImage != nil {
		it.ProductImage = *p.ProductImage
	}
	if p.AdditionalImages != nil {
		it.AdditionalImages = append([]string(nil), (*p.AdditionalImages)...)
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
}

type CategoryPatch struct {
	CategoryName *string `json:"category_name"`
}

func (p CategoryPatch) Apply(c *Category) {
	if p.CategoryName != nil {
		c.CategoryName = *p.CategoryName
	}
}
