package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/store"
)

// GetByID returns a parte with its evidence resolved to fetchable URLs
func (s *Service) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.loadReport(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListEvidence(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	report.Evidence = s.resolveEvidence(items)
	return report, nil
}

// ListByUser returns the partes created by userID, most recent first
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Report, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationf("user_id is required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, validationf("user_id %q is not a valid id", userID)
	}
	return s.list(ctx, store.ReportFilter{OwnerID: userID})
}

// ListByFilter returns partes matching an optional date and shift
func (s *Service) ListByFilter(ctx context.Context, date, shift string) ([]models.Report, error) {
	filter := store.ReportFilter{}
	if strings.TrimSpace(date) != "" {
		day, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		filter.Date = day
	}
	if strings.TrimSpace(shift) != "" {
		filter.Shifts = ShiftSpellings(shift)
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter store.ReportFilter) ([]models.Report, error) {
	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return reports, nil
}
