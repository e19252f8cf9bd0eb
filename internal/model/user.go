package model

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeVolunteer AccountType = "volunteer"
	AccountTypeManager   AccountType = "manager"
)

type User struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	Name         string      `json:"name" db:"name"`
	PasswordHash string      `json:"-" db:"password_hash"`
	AccountType  AccountType `json:"account_type" db:"account_type"`
	CityID       *uuid.UUID  `json:"city_id,omitempty" db:"city_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

func (u *User) IsManager() bool {
	return u.AccountType == AccountTypeManager
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required,max=150"`
	Password    string `json:"password" binding:"required,min=8"`
	AccountType string `json:"account_type" binding:"required,oneof=volunteer manager"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenClaims struct {
	UserID      uuid.UUID
	AccountType AccountType
}
