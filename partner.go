package haojia

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRecord = errors.New("record rejected by store constraints")
)

// ApplicationStatus is set by operators out of band. New rows start as pending.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationContacted ApplicationStatus = "contacted"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// InvestmentBrackets are the labels offered by the partner form, in display order.
var InvestmentBrackets = []string{"10万以内", "10-30万", "30-50万", "50万以上"}

// PartnerApplicationsCollection is the table backing partner applications.
const PartnerApplicationsCollection = "partner_applications"

type PartnerApplication struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Region     string            `json:"region"`
	Experience string            `json:"experience,omitempty"`
	Investment string            `json:"investment"`
	Message    string            `json:"message,omitempty"`
	Status     ApplicationStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// PartnerApplicationService persists partner applications. Create fills in the
// store-assigned ID, Status and CreatedAt of the returned record.
type PartnerApplicationService interface {
	Create(ctx context.Context, app PartnerApplication) (PartnerApplication, error)
	QueryAll(ctx context.Context) ([]PartnerApplication, error)
}
