package domain

import "time"

type Product struct {
	ID               int32     `json:"id"`
	ShopID           int32     `json:"shop_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	DefaultRentCents int32     `json:"default_rent_cents"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}
