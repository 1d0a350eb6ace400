package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phbpx/haojia"
)

type partnerRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Phone      string         `db:"phone"`
	Region     string         `db:"region"`
	Experience sql.NullString `db:"experience"`
	Investment string         `db:"investment"`
	Message    sql.NullString `db:"message"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r partnerRow) toApplication() haojia.PartnerApplication {
	return haojia.PartnerApplication{
		ID:         r.ID,
		Name:       r.Name,
		Phone:      r.Phone,
		Region:     r.Region,
		Experience: r.Experience.String,
		Investment: r.Investment,
		Message:    r.Message.String,
		Status:     haojia.ApplicationStatus(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

type PartnerApplicationService struct {
	db *sqlx.DB
}

func NewPartnerApplicationService(db *sqlx.DB) haojia.PartnerApplicationService {
	return &PartnerApplicationService{
		db: db,
	}
}

// Create inserts the user entered fields. The database assigns id, status and
// created_at.
func (s PartnerApplicationService) Create(ctx context.Context, app haojia.PartnerApplication) (haojia.PartnerApplication, error) {
	query := `
	INSERT INTO partner_applications (
		name, phone, region, experience, investment, message
	) VALUES (
		$1, $2, $3, $4, $5, $6
	)
	RETURNING id, status, created_at`

	var status string
	err := s.db.QueryRowxContext(ctx, query,
		app.Name,
		app.Phone,
		app.Region,
		nullable(app.Experience),
		app.Investment,
		nullable(app.Message),
	).Scan(&app.ID, &status, &app.CreatedAt)

	if err != nil {
		if pqCode(err) == checkViolation {
			return haojia.PartnerApplication{}, haojia.ErrInvalidRecord
		}
		return haojia.PartnerApplication{}, fmt.Errorf("insert partner application: %w", err)
	}

	app.Status = haojia.ApplicationStatus(status)
	return app, nil
}

// QueryAll returns every application, newest first.
func (s PartnerApplicationService) QueryAll(ctx context.Context) ([]haojia.PartnerApplication, error) {
	query := `
	SELECT
		id,
		name,
		phone,
		region,
		experience,
		investment,
		message,
		status,
		created_at
	FROM partner_applications
	ORDER BY created_at DESC`

	var rows []partnerRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select partner applications: %w", err)
	}

	apps := make([]haojia.PartnerApplication, len(rows))
	for i, r := range rows {
		apps[i] = r.toApplication()
	}
	return apps, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
