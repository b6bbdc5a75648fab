package models

import "gorm.io/gorm"

// User represents an account of the beverage shop, either a customer or an
// employee. Order notifications are delivered to the customer's phone number.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password    string    `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role        ActorRole `json:"role" gorm:"type:varchar(20);default:customer" validate:"omitempty,oneof=customer employee"`
	Name        string    `json:"name" gorm:"type:varchar(250)" validate:"required,min=2,max=250"`
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(13)" validate:"required,min=7,max=13"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Actor returns the resolved caller identity for this user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
