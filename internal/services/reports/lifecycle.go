package reports

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/xelth-com/sisifo/internal/events"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/store"
)

// EvidenceKind tags an upload as video only when it is marked or typed video
func EvidenceKind(contentType string, markedVideo bool) string {
	if markedVideo || strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return models.EvidenceVideo
	}
	return models.EvidencePhoto
}

// Create persists a new open parte with its evidence.
// The report row and evidence rows are written in one transaction; files
// already stored are removed when the transaction fails.
func (s *Service) Create(ctx context.Context, in CreateInput, ownerID string, uploads []Upload) (*models.Report, error) {
	owner, err := s.activeUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	report, err := s.buildReport(in, owner.ID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(owner, report, OpCreate); err != nil {
		return nil, err
	}

	var stored []string
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateReport(ctx, report); err != nil {
			return fmt.Errorf("%w: insert report: %v", ErrStorage, err)
		}

		items := make([]models.Evidence, 0, len(uploads))
		for _, up := range uploads {
			name := strings.TrimSpace(up.Name)
			if name == "" {
				name = "evidencia"
			}
			key, size, err := s.files.Save(ctx, report.ID, name, up.Body)
			if err != nil {
				return fmt.Errorf("%w: store %s: %v", ErrStorage, name, err)
			}
			stored = append(stored, key)
			items = append(items, models.Evidence{
				ReportID:     report.ID,
				Kind:         EvidenceKind(up.ContentType, up.Video),
				Path:         key,
				OriginalName: name,
				ContentType:  up.ContentType,
				Size:         size,
			})
		}

		if err := tx.AddEvidence(ctx, items); err != nil {
			return fmt.Errorf("%w: insert evidence: %v", ErrStorage, err)
		}
		report.Evidence = s.resolveEvidence(items)
		return nil
	})
	if err != nil {
		for _, key := range stored {
			if rmErr := s.files.Remove(ctx, key); rmErr != nil {
				log.Printf("⚠️ Failed to remove orphaned evidence %s: %v", key, rmErr)
			}
		}
		log.Printf("❌ Failed to create parte for %s: %v", owner.Username, err)
		return nil, err
	}

	log.Printf("📝 Parte #%d created by %s (%s/%s, %d evidence)", report.ID, owner.Username, report.Zone, report.Shift, len(report.Evidence))
	s.publish(ctx, events.ReportCreated, owner.ID, report)
	return report, nil
}

func (s *Service) buildReport(in CreateInput, ownerID string) (*models.Report, error) {
	incidence := canonicalIncidence(in.IncidenceType)
	if incidence == "" {
		return nil, validationf("incidence_type is required")
	}
	reference := strings.TrimSpace(in.ReferenceNumber)
	if reference == "" {
		return nil, validationf("reference_number is required")
	}

	now := s.now()
	date := now.Format(models.DateLayout)
	if strings.TrimSpace(in.Date) != "" {
		var err error
		if date, err = ParseDate(in.Date); err != nil {
			return nil, err
		}
	}
	start := now.Format(models.TimeLayout)
	if strings.TrimSpace(in.StartTime) != "" {
		var err error
		if start, err = ParseTimeOfDay(in.StartTime); err != nil {
			return nil, err
		}
	}

	participants := in.Participants
	if participants == nil {
		participants = []models.Participant{}
	}

	return &models.Report{
		OwnerID:           ownerID,
		ReferenceNumber:   reference,
		Date:              date,
		StartTime:         start,
		Sector:            strings.TrimSpace(in.Sector),
		Zone:              canonicalZone(in.Zone),
		Shift:             canonicalShift(in.Shift),
		Place:             strings.TrimSpace(in.Place),
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		VehicleType:       strings.TrimSpace(in.VehicleType),
		VehicleNumber:     strings.TrimSpace(in.VehicleNumber),
		Plate:             strings.ToUpper(strings.TrimSpace(in.Plate)),
		DriverName:        strings.TrimSpace(in.DriverName),
		DriverID:          strings.TrimSpace(in.DriverID),
		IncidenceType:     incidence,
		Origin:            strings.TrimSpace(in.Origin),
		Narrative:         strings.TrimSpace(in.Narrative),
		ZonalSupervisor:   strings.TrimSpace(in.ZonalSupervisor),
		GeneralSupervisor: strings.TrimSpace(in.GeneralSupervisor),
		Participants:      participants,
		Evidence:          []models.Evidence{},
	}, nil
}

// Close records the end time, moving an open parte to closed.
// Closing an already-closed parte fails with ErrConflict.
func (s *Service) Close(ctx context.Context, reportID uint, endTime string, actingUserID string) (*models.Report, error) {
	actor, err := s.activeUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(endTime) == "" {
		return nil, validationf("end_time is required")
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, report, OpClose); err != nil {
		return nil, err
	}
	if report.IsClosed() {
		return nil, storeErr(store.ErrConflict, reportID)
	}

	closed, err := s.store.CloseReport(ctx, reportID, end)
	if err != nil {
		return nil, storeErr(err, reportID)
	}

	log.Printf("🔒 Parte #%d closed at %s by %s", closed.ID, end, actor.Username)
	s.publish(ctx, events.ReportClosed, actor.ID, closed)
	return closed, nil
}

// readOnlyFields may appear in payloads but never change through Update
var readOnlyFields = map[string]bool{
	"id":           true,
	"owner_id":     true,
	"end_time":     true,
	"created_at":   true,
	"updated_at":   true,
	"evidence":     true,
	"participants": true,
}

// Update overwrites descriptive fields. fields must use canonical names
// (see NormalizeFields). Lifecycle state and evidence are untouched.
func (s *Service) Update(ctx context.Context, reportID uint, fields map[string]string, actingUserID string) (*models.Report, error) {
	actor, err := s.activeUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, report, OpUpdate); err != nil {
		return nil, err
	}

	columns, err := updateColumns(fields)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateReport(ctx, reportID, columns)
	if err != nil {
		return nil, storeErr(err, reportID)
	}

	log.Printf("✏️ Parte #%d updated by %s (%d fields)", updated.ID, actor.Username, len(columns))
	s.publish(ctx, events.ReportUpdated, actor.ID, updated)
	return updated, nil
}

func updateColumns(fields map[string]string) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, validationf("no fields to update")
	}

	columns := make(map[string]any, len(fields))
	for name, raw := range fields {
		if readOnlyFields[name] {
			return nil, validationf("field %s cannot be updated", name)
		}
		if !store.UpdatableColumns[name] {
			return nil, validationf("unknown field %s", name)
		}

		value := strings.TrimSpace(raw)
		switch name {
		case "incidence_type":
			value = canonicalIncidence(value)
			if value == "" {
				return nil, validationf("incidence_type cannot be empty")
			}
		case "reference_number":
			if value == "" {
				return nil, validationf("reference_number cannot be empty")
			}
		case "date":
			d, err := ParseDate(value)
			if err != nil {
				return nil, err
			}
			value = d
		case "start_time":
			t, err := ParseTimeOfDay(value)
			if err != nil {
				return nil, err
			}
			value = t
		case "zone":
			value = canonicalZone(value)
		case "shift":
			value = canonicalShift(value)
		case "plate":
			value = strings.ToUpper(value)
		case "latitude", "longitude":
			limit := 90.0
			if name == "longitude" {
				limit = 180
			}
			coord, err := parseCoordinate(name, value, limit)
			if err != nil {
				return nil, err
			}
			columns[name] = coord
			continue
		}
		columns[name] = value
	}
	return columns, nil
}
