package models

import "time"

type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
}

type Category struct {
	Name string `json:"name"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Token        string    `json:"-"`
	Verified     bool      `json:"verified"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// ProductQuery selects and orders the product listing.
type ProductQuery struct {
	SortBy   string
	Desc     bool
	Category string
}

const (
	SortNone  = ""
	SortPrice = "price"
	SortName  = "name"
)

type Cart struct {
	Items []CartItem `json:"items"`
	Count int64      `json:"count"`
	Total float64    `json:"total"`
}
