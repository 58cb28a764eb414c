package models

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	UserTypeClient    UserType = "client"
	UserTypeLocalizer UserType = "localizer"
)

func (t UserType) Valid() bool {
	return t == UserTypeClient || t == UserTypeLocalizer
}

// Profile is the account-level record of a user. Its ID is the subject of
// the user's access token.
type Profile struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username  *string    `gorm:"type:text" json:"username"`
	Rating    *float64   `gorm:"type:decimal(3,2)" json:"rating"`
	Languages StringList `json:"languages"`
	AvatarURL *string    `gorm:"type:text" json:"avatar_url"`
	UserType  *UserType  `gorm:"type:text" json:"user_type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
