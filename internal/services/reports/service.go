// Package reports implements the parte lifecycle (create, close, update),
// zonal aggregation and read access on top of a store.Store.
package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/xelth-com/sisifo/internal/events"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/store"
)

// Service holds the collaborators shared by every operation. It keeps no
// request state; the store is the only shared mutable resource.
type Service struct {
	store  store.Store
	files  storage.FileStore
	events events.Publisher
	now    func() time.Time
}

// NewService wires a service. A nil publisher drops events.
func NewService(st store.Store, files storage.FileStore, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:  st,
		files:  files,
		events: pub,
		now:    time.Now,
	}
}

// CreateInput carries the canonical fields of a new parte
type CreateInput struct {
	ReferenceNumber   string
	Date              string
	StartTime         string
	Sector            string
	Zone              string
	Shift             string
	Place             string
	Latitude          *float64
	Longitude         *float64
	VehicleType       string
	VehicleNumber     string
	Plate             string
	DriverName        string
	DriverID          string
	IncidenceType     string
	Origin            string
	Narrative         string
	ZonalSupervisor   string
	GeneralSupervisor string
	Participants      []models.Participant
}

// Upload is one evidence file submitted with a parte
type Upload struct {
	Name        string
	ContentType string
	Video       bool // the client explicitly marked the file as video
	Body        io.Reader
}

// activeUser resolves an acting user id, failing with ErrAuth
func (s *Service) activeUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing user", ErrAuth)
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrAuth)
		}
		return nil, fmt.Errorf("%w: load user: %v", ErrStorage, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is disabled", ErrAuth)
	}
	return user, nil
}

func (s *Service) loadReport(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, storeErr(err, id)
	}
	return report, nil
}

// storeErr maps store sentinels onto the service taxonomy
func storeErr(err error, id uint) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: report %d", ErrNotFound, id)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: report %d is already closed", ErrConflict, id)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

func (s *Service) publish(ctx context.Context, typ string, actorID string, r *models.Report) {
	ev := events.Event{
		Type:       typ,
		ReportID:   r.ID,
		ActorID:    actorID,
		Zone:       r.Zone,
		Shift:      r.Shift,
		Incidence:  r.IncidenceType,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("⚠️ Events: %v", err)
	}
}

// resolveEvidence fills the URL of each item
func (s *Service) resolveEvidence(items []models.Evidence) []models.Evidence {
	for i := range items {
		items[i].URL = s.files.URL(items[i].Path)
	}
	return items
}
