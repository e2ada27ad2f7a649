package transport

import "time"

type CreateProductRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"        validate:"required"`
	Price       float64  `json:"price"       validate:"gte=0"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type WishlistRequest struct {
	ProductID string `json:"productId"`
	UserName  string `json:"userName"`
}

type ViewRequest struct {
	Username  string `json:"username"`
	ProductID string `json:"productId"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type CartItemRequest struct {
	ProductID string `json:"productId"`
}

type LoginResult struct {
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type MessageResponse struct {
	Message string `json:"message"`
}
