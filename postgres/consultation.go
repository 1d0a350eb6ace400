package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phbpx/haojia"
)

type consultationRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Phone        string         `db:"phone"`
	ServiceType  string         `db:"service_type"`
	Address      sql.NullString `db:"address"`
	Requirements string         `db:"requirements"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
}

type ConsultationService struct {
	db *sqlx.DB
}

func NewConsultationService(db *sqlx.DB) haojia.ConsultationService {
	return &ConsultationService{
		db: db,
	}
}

func (s ConsultationService) Create(ctx context.Context, c haojia.Consultation) (haojia.Consultation, error) {
	query := `
	INSERT INTO consultations (
		name, phone, service_type, address, requirements
	) VALUES (
		$1, $2, $3, $4, $5
	)
	RETURNING id, status, created_at`

	var status string
	err := s.db.QueryRowxContext(ctx, query,
		c.Name,
		c.Phone,
		string(c.ServiceType),
		nullable(c.Address),
		c.Requirements,
	).Scan(&c.ID, &status, &c.CreatedAt)

	if err != nil {
		if pqCode(err) == checkViolation {
			return haojia.Consultation{}, haojia.ErrInvalidRecord
		}
		return haojia.Consultation{}, fmt.Errorf("insert consultation: %w", err)
	}

	c.Status = haojia.ConsultationStatus(status)
	return c, nil
}

func (s ConsultationService) QueryAll(ctx context.Context) ([]haojia.Consultation, error) {
	query := `
	SELECT
		id,
		name,
		phone,
		service_type,
		address,
		requirements,
		status,
		created_at
	FROM consultations
	ORDER BY created_at DESC`

	var rows []consultationRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select consultations: %w", err)
	}

	out := make([]haojia.Consultation, len(rows))
	for i, r := range rows {
		out[i] = haojia.Consultation{
			ID:           r.ID,
			Name:         r.Name,
			Phone:        r.Phone,
			ServiceType:  haojia.ServiceType(r.ServiceType),
			Address:      r.Address.String,
			Requirements: r.Requirements,
			Status:       haojia.ConsultationStatus(r.Status),
			CreatedAt:    r.CreatedAt,
		}
	}
	return out, nil
}
