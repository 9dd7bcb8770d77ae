package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xelth-com/sisifo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists to a relational database through GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables this store needs
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Report{}, &models.Evidence{})
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", user.Username, user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	// The unique indexes still decide when two registrations race past the check
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *GormStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (s *GormStore) CreateReport(ctx context.Context, report *models.Report) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

func (s *GormStore) AddEvidence(ctx context.Context, items []models.Evidence) error {
	if len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

func (s *GormStore) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (s *GormStore) ListEvidence(ctx context.Context, reportID uint) ([]models.Evidence, error) {
	items := []models.Evidence{}
	if err := s.db.WithContext(ctx).Where("report_id = ?", reportID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	q := s.db.WithContext(ctx).Model(&models.Report{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if len(filter.Shifts) > 0 {
		q = q.Where("UPPER(TRIM(shift)) IN ?", filter.Shifts)
	}

	reports := []models.Report{}
	if err := q.Order("date DESC, start_time DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *GormStore) CloseReport(ctx context.Context, id uint, endTime string) (*models.Report, error) {
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND (end_time IS NULL OR end_time = '')", id).
		Updates(map[string]any{"end_time": endTime, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either missing or already closed
		if _, err := s.GetReport(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetReport(ctx, id)
}

func (s *GormStore) UpdateReport(ctx context.Context, id uint, fields map[string]any) (*models.Report, error) {
	for col := range fields {
		if !UpdatableColumns[col] {
			return nil, fmt.Errorf("column %q is not updatable", col)
		}
	}
	if _, err := s.GetReport(ctx, id); err != nil {
		return nil, err
	}

	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC()

	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(values).Error; err != nil {
		return nil, err
	}
	return s.GetReport(ctx, id)
}

func (s *GormStore) CountByZoneAndIncidence(ctx context.Context, date string, shifts []string) ([]ZoneIncidenceCount, error) {
	rows := []ZoneIncidenceCount{}
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Select("zone, incidence_type, COUNT(*) AS count").
		Where("date = ?", date).
		Where("UPPER(TRIM(shift)) IN ?", shifts).
		Group("zone, incidence_type").
		Order("zone, incidence_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CountByUserAndZone(ctx context.Context) ([]UserZoneCount, error) {
	rows := []UserZoneCount{}
	err := s.db.WithContext(ctx).Table("reports").
		Select("reports.owner_id AS user_id, COALESCE(users.name, '') AS user_name, " +
			"COALESCE(users.username, '') AS username, reports.zone AS zone, COUNT(*) AS count").
		Joins("LEFT JOIN users ON users.id = reports.owner_id").
		Group("reports.owner_id, users.name, users.username, reports.zone").
		Order("reports.owner_id, reports.zone").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps GORM sentinel errors to store errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(strings.ToLower(err.Error()), "unique constraint"):
		return ErrDuplicate
	default:
		return err
	}
}
