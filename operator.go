package haojia

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicatedOperator = errors.New("email already in use")
	ErrOperatorNotFound   = errors.New("operator not found")
)

// Operator is an account allowed to sign in to the admin dashboard.
type Operator struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type OperatorService interface {
	Create(ctx context.Context, op Operator) error
	QueryByEmail(ctx context.Context, email string) (Operator, error)
}
