package models

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"                json:"id"`
	Username  string `gorm:"index;not null"            json:"username"`
	Role      string `gorm:"not null"                  json:"role"`
	Token     string `gorm:"uniqueIndex;not null"      json:"-"`
	JTI       string `gorm:"uniqueIndex;not null"      json:"jti"`
	ExpiresAt int64  `gorm:"not null"                  json:"expires_at"`
	Revoked   bool   `gorm:"default:false"             json:"revoked"`
	RotatedAt int64  `gorm:"not null;default:0"        json:"rotated_at"`
}
