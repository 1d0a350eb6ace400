package haojia

import (
	"context"
	"time"
)

type ServiceType string

const (
	ServiceFurniture ServiceType = "furniture"
	ServiceWindow    ServiceType = "window"
)

// Label is the name shown to operators.
func (s ServiceType) Label() string {
	switch s {
	case ServiceFurniture:
		return "家具改色"
	case ServiceWindow:
		return "门窗贴膜"
	}
	return string(s)
}

type ConsultationStatus string

const (
	ConsultationNew       ConsultationStatus = "new"
	ConsultationContacted ConsultationStatus = "contacted"
	ConsultationQuoted    ConsultationStatus = "quoted"
	ConsultationCompleted ConsultationStatus = "completed"
)

// ConsultationsCollection is the table backing consultation requests.
const ConsultationsCollection = "consultations"

type Consultation struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Phone        string             `json:"phone"`
	ServiceType  ServiceType        `json:"service_type"`
	Address      string             `json:"address,omitempty"`
	Requirements string             `json:"requirements"`
	Status       ConsultationStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
}

type ConsultationService interface {
	Create(ctx context.Context, c Consultation) (Consultation, error)
	QueryAll(ctx context.Context) ([]Consultation, error)
}
