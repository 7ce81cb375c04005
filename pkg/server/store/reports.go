package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// ErrReportNotFound is returned when a report doesn't exist, was deleted, or
// belongs to another user
var ErrReportNotFound = errors.New("report not found")

// ReportsStore abstracts generated report storage
type ReportsStore interface {
	CreateReport(report *model.Report) error

	// ListReports returns the user's live reports of every kind, newest
	// first.
	ListReports(userID uuid.UUID) ([]model.Report, error)

	// GetReport returns a live report owned by the user.
	GetReport(userID, id uuid.UUID) (*model.Report, error)

	// DeleteReport soft deletes a report owned by the user.
	DeleteReport(userID, id uuid.UUID) error
}
