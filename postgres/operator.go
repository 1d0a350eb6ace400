package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/phbpx/haojia"
)

type OperatorService struct {
	db *sqlx.DB
}

func NewOperatorService(db *sqlx.DB) haojia.OperatorService {
	return &OperatorService{
		db: db,
	}
}

func (s OperatorService) Create(ctx context.Context, op haojia.Operator) error {
	query := `
	INSERT INTO operators (
		id, email, password_hash, created_at
	) VALUES (
		$1, $2, $3, $4
	)`

	_, err := s.db.ExecContext(ctx, query,
		op.ID,
		strings.ToLower(op.Email),
		op.PasswordHash,
		op.CreatedAt,
	)

	if err != nil {
		if pqCode(err) == uniqueViolation {
			return haojia.ErrDuplicatedOperator
		}
		return err
	}

	return nil
}

func (s OperatorService) QueryByEmail(ctx context.Context, email string) (haojia.Operator, error) {
	query := `
	SELECT
		id,
		email,
		password_hash,
		created_at
	FROM operators
	WHERE email=$1`

	op := haojia.Operator{}
	err := s.db.QueryRowxContext(ctx, query, strings.ToLower(email)).Scan(
		&op.ID,
		&op.Email,
		&op.PasswordHash,
		&op.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return op, haojia.ErrOperatorNotFound
		}
		return op, err
	}

	return op, nil
}
