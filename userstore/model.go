package userstore

import (
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/permission"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Username     string `gorm:"size:50"`
	FirstName    string `gorm:"size:50"`
	LastName     string `gorm:"size:50"`
	Role         string `gorm:"size:10;not null;default:user"`
	IsVerified   bool   `gorm:"not null;default:false"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) identity() authcore.Identity {
	return authcore.Identity{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         permission.Role(r.Role),
		Verified:     r.IsVerified,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
