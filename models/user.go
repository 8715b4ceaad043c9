package models

import "time"

// Account is an entry of the account directory. Credentials live elsewhere.
type Account struct {
	Email     string    `gorm:"primaryKey" json:"email"`
	Username  string    `gorm:"index" json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
