package models

import "time"

// PushSubscription is the delivery target registered for an identity.
type PushSubscription struct {
	Identity  string    `gorm:"primaryKey" json:"userEmail"`
	Target    string    `gorm:"not null" json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SubscribeRequest struct {
	UserEmail string `json:"userEmail" conform:"trim,lower" binding:"required"`
	Token     string `json:"token" conform:"trim" binding:"required"`
}

type PushRequest struct {
	UserEmail string            `json:"userEmail" conform:"trim,lower" binding:"required"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data"`
}

// PushPayload is what a sender delivers to a device.
type PushPayload struct {
	Title string
	Body  string
	Data  map[string]string
}
