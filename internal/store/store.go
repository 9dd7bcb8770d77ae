// Package store persists users, partes and their evidence.
//
// Two implementations exist: GormStore for PostgreSQL (production) and
// MemoryStore for tests and demo runs. One is picked at startup and the
// process never mixes them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/xelth-com/sisifo/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("report already closed")
	ErrDuplicate = errors.New("record already exists")
)

// ReportFilter narrows ListReports. Empty fields match everything.
// Shifts holds upper-cased spellings accepted for the shift column.
type ReportFilter struct {
	OwnerID string
	Date    string
	Shifts  []string
}

// ZoneIncidenceCount is one GROUP BY (zone, incidence_type) row
type ZoneIncidenceCount struct {
	Zone          string
	IncidenceType string
	Count         int64
}

// UserZoneCount is one GROUP BY (owner, zone) row
type UserZoneCount struct {
	UserID   string
	UserName string
	Username string
	Zone     string
	Count    int64
}

// Store is the persistence boundary used by the services
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*models.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error

	CreateReport(ctx context.Context, report *models.Report) error
	AddEvidence(ctx context.Context, items []models.Evidence) error
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	ListEvidence(ctx context.Context, reportID uint) ([]models.Evidence, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error)

	// CloseReport sets end_time only if the report is still open.
	// It returns ErrConflict when the report was already closed.
	CloseReport(ctx context.Context, id uint, endTime string) (*models.Report, error)
	UpdateReport(ctx context.Context, id uint, fields map[string]any) (*models.Report, error)

	CountByZoneAndIncidence(ctx context.Context, date string, shifts []string) ([]ZoneIncidenceCount, error)
	CountByUserAndZone(ctx context.Context) ([]UserZoneCount, error)

	// Transaction runs fn against a store bound to a single transaction.
	// Any error returned by fn rolls back every write made through it.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// UpdatableColumns lists the report columns UpdateReport accepts
var UpdatableColumns = map[string]bool{
	"reference_number":   true,
	"date":               true,
	"start_time":         true,
	"sector":             true,
	"zone":               true,
	"shift":              true,
	"place":              true,
	"latitude":           true,
	"longitude":          true,
	"vehicle_type":       true,
	"vehicle_number":     true,
	"plate":              true,
	"driver_name":        true,
	"driver_id":          true,
	"incidence_type":     true,
	"origin":             true,
	"narrative":          true,
	"zonal_supervisor":   true,
	"general_supervisor": true,
}
