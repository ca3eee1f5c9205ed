package models

import "time"

// Account is a customer or vendor login. The two roles live in separate collections.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	Role         string    `json:"role" bson:"role"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	OTPVerified  bool      `json:"is_otp_verified" bson:"is_otp_verified"`
	CreatedAt    time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt    time.Time `json:"updated_datetime" bson:"updated_datetime"`
}

// Registered reports whether the account finished sign-up.
func (a Account) Registered() bool {
	return a.PasswordHash != ""
}

type AccountPatch struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
}

// GuestUser checks out without an account.
type GuestUser struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	PhoneNumber string    `json:"phone_number" bson:"phone_number"`
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	StreetLine  string    `json:"street_line" bson:"street_line"`
	PlotNumber  string    `json:"plot_number" bson:"plot_number"`
	City        string    `json:"city" bson:"city"`
	State       string    `json:"state" bson:"state"`
	ZipCode     string    `json:"zip_code" bson:"zip_code"`
	CreatedAt   time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt   time.Time `json:"updated_datetime" bson:"updated_datetime"`
}

type GuestPatch struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	StreetLine  *string `json:"street_line"`
	PlotNumber  *string `json:"plot_number"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zip_code"`
}

func (p GuestPatch) Apply(g *GuestUser) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.Name, p.Name)
	set(&g.PhoneNumber, p.PhoneNumber)
	set(&g.Email, p.Email)
	set(&g.StreetLine, p.StreetLine)
	set(&g.PlotNumber, p.PlotNumber)
	set(&g.City, p.City)
	set(&g.State, p.State)
	set(&g.ZipCode, p.ZipCode)
}

type Address struct {
	ID           string    `json:"id" bson:"_id"`
	CustomerID   string    `json:"customer_id" bson:"customer_id"`
	AddressLine  string    `json:"address_line" bson:"address_line"`
	City         string    `json:"city" bson:"city"`
	State        string    `json:"state" bson:"state"`
	ZipCode      string    `json:"zip_code" bson:"zip_code"`
	ExtraDetails string    `json:"extra_details,omitempty" bson:"extra_details,omitempty"`
	CreatedAt    time.Time `json:"created_datetime" bson:"created_datetime"`
	UpdatedAt    time.Time `json:"updated_datetime" bson:"updated_datetime"`
}

type AddressPatch struct {
	AddressLine  *string `json:"address_line"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zip_code"`
	ExtraDetails *string `json:"extra_details"`
}

func (p AddressPatch) Apply(a *Address) {
	if p.AddressLine != nil {
		a.AddressLine = *p.AddressLine
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.ZipCode != nil {
		a.ZipCode = *p.ZipCode
	}
	if p.ExtraDetails != nil {
		a.ExtraDetails = *p.ExtraDetails
	}
}
