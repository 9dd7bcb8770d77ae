package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/xelth-com/sisifo/internal/models"
)

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users    map[string]models.User
	reports  map[uint]models.Report
	evidence map[uint]models.Evidence

	nextReportID   uint
	nextEvidenceID uint
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		reports:  make(map[uint]models.Report),
		evidence: make(map[uint]models.Evidence),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemoryStore) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreateReport(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReportID++
	report.ID = s.nextReportID
	now := time.Now().UTC()
	report.CreatedAt, report.UpdatedAt = now, now
	s.reports[report.ID] = copyReport(*report)
	return nil
}

func (s *MemoryStore) AddEvidence(ctx context.Context, items []models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range items {
		if _, ok := s.reports[items[i].ReportID]; !ok {
			return fmt.Errorf("evidence for report %d: %w", items[i].ReportID, ErrNotFound)
		}
	}
	now := time.Now().UTC()
	for i := range items {
		s.nextEvidenceID++
		items[i].ID = s.nextEvidenceID
		items[i].CreatedAt = now
		s.evidence[items[i].ID] = items[i]
	}
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyReport(r)
	return &out, nil
}

func (s *MemoryStore) ListEvidence(ctx context.Context, reportID uint) ([]models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Evidence{}
	for _, e := range s.evidence {
		if e.ReportID == reportID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Report{}
	for _, r := range s.reports {
		if filter.OwnerID != "" && r.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		if len(filter.Shifts) > 0 && !containsFold(filter.Shifts, r.Shift) {
			continue
		}
		out = append(out, copyReport(r))
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out, nil
}

func (s *MemoryStore) CloseReport(ctx context.Context, id uint, endTime string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.IsClosed() {
		return nil, ErrConflict
	}
	r.EndTime = &endTime
	r.UpdatedAt = time.Now().UTC()
	s.reports[id] = r
	out := copyReport(r)
	return &out, nil
}

func (s *MemoryStore) UpdateReport(ctx context.Context, id uint, fields map[string]any) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	for col, v := range fields {
		if err := applyColumn(&r, col, v); err != nil {
			return nil, err
		}
	}
	r.UpdatedAt = time.Now().UTC()
	s.reports[id] = r
	out := copyReport(r)
	return &out, nil
}

func (s *MemoryStore) CountByZoneAndIncidence(ctx context.Context, date string, shifts []string) ([]ZoneIncidenceCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ zone, incidence string }
	counts := make(map[key]int64)
	for _, r := range s.reports {
		if r.Date != date || !containsFold(shifts, r.Shift) {
			continue
		}
		counts[key{r.Zone, r.IncidenceType}]++
	}

	out := make([]ZoneIncidenceCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, ZoneIncidenceCount{Zone: k.zone, IncidenceType: k.incidence, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Zone != out[j].Zone {
			return out[i].Zone < out[j].Zone
		}
		return out[i].IncidenceType < out[j].IncidenceType
	})
	return out, nil
}

func (s *MemoryStore) CountByUserAndZone(ctx context.Context) ([]UserZoneCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ owner, zone string }
	counts := make(map[key]int64)
	for _, r := range s.reports {
		counts[key{r.OwnerID, r.Zone}]++
	}

	out := make([]UserZoneCount, 0, len(counts))
	for k, n := range counts {
		row := UserZoneCount{UserID: k.owner, Zone: k.zone, Count: n}
		if u, ok := s.users[k.owner]; ok {
			row.UserName, row.Username = u.Name, u.Username
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Zone < out[j].Zone
	})
	return out, nil
}

// Transaction hands fn a store that records an undo entry for every row
// it writes. If fn fails only those rows are reverted, so writes committed
// concurrently through the parent store survive. Transactions are
// serialized with each other.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryTx{MemoryStore: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// memoryTx wraps the parent store and logs how to revert each write
type memoryTx struct {
	*MemoryStore
	undo []func()
}

// record runs under s.mu held by the caller
func (tx *memoryTx) record(f func()) {
	tx.undo = append(tx.undo, f)
}

func (tx *memoryTx) rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memoryTx) restoreUser(id string) {
	prev, existed := tx.users[id]
	tx.record(func() {
		if existed {
			tx.users[id] = prev
		} else {
			delete(tx.users, id)
		}
	})
}

func (tx *memoryTx) restoreReport(id uint) {
	prev, existed := tx.reports[id]
	tx.record(func() {
		if existed {
			tx.reports[id] = prev
		} else {
			delete(tx.reports, id)
		}
	})
}

func (tx *memoryTx) CreateUser(ctx context.Context, user *models.User) error {
	if err := tx.MemoryStore.CreateUser(ctx, user); err != nil {
		return err
	}
	id := user.ID
	tx.mu.Lock()
	tx.record(func() { delete(tx.users, id) })
	tx.mu.Unlock()
	return nil
}

func (tx *memoryTx) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	tx.mu.Lock()
	tx.restoreUser(id)
	tx.mu.Unlock()
	return tx.MemoryStore.SetUserActive(ctx, id, active)
}

func (tx *memoryTx) TouchLogin(ctx context.Context, id string, at time.Time) error {
	tx.mu.Lock()
	tx.restoreUser(id)
	tx.mu.Unlock()
	return tx.MemoryStore.TouchLogin(ctx, id, at)
}

func (tx *memoryTx) CreateReport(ctx context.Context, report *models.Report) error {
	if err := tx.MemoryStore.CreateReport(ctx, report); err != nil {
		return err
	}
	id := report.ID
	tx.mu.Lock()
	tx.record(func() { delete(tx.reports, id) })
	tx.mu.Unlock()
	return nil
}

func (tx *memoryTx) AddEvidence(ctx context.Context, items []models.Evidence) error {
	if err := tx.MemoryStore.AddEvidence(ctx, items); err != nil {
		return err
	}
	ids := make([]uint, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	tx.mu.Lock()
	tx.record(func() {
		for _, id := range ids {
			delete(tx.evidence, id)
		}
	})
	tx.mu.Unlock()
	return nil
}

func (tx *memoryTx) CloseReport(ctx context.Context, id uint, endTime string) (*models.Report, error) {
	tx.mu.Lock()
	tx.restoreReport(id)
	tx.mu.Unlock()
	return tx.MemoryStore.CloseReport(ctx, id, endTime)
}

func (tx *memoryTx) UpdateReport(ctx context.Context, id uint, fields map[string]any) (*models.Report, error) {
	tx.mu.Lock()
	tx.restoreReport(id)
	tx.mu.Unlock()
	return tx.MemoryStore.UpdateReport(ctx, id, fields)
}

// Transaction on a transaction joins it
func (tx *memoryTx) Transaction(ctx context.Context, fn func(Store) error) error {
	return fn(tx)
}

func copyReport(r models.Report) models.Report {
	if r.EndTime != nil {
		end := *r.EndTime
		r.EndTime = &end
	}
	if r.Participants != nil {
		r.Participants = append(r.Participants[:0:0], r.Participants...)
	}
	r.Evidence = nil
	r.Owner = nil
	return r
}

func containsFold(set []string, v string) bool {
	return lo.Contains(set, strings.ToUpper(strings.TrimSpace(v)))
}

// newerFirst orders by date, start time and id, all descending
func newerFirst(a, b models.Report) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	if a.StartTime != b.StartTime {
		return a.StartTime > b.StartTime
	}
	return a.ID > b.ID
}

func applyColumn(r *models.Report, col string, v any) error {
	if !UpdatableColumns[col] {
		return fmt.Errorf("column %q is not updatable", col)
	}
	if col == "latitude" || col == "longitude" {
		f, ok := v.(*float64)
		if !ok {
			return fmt.Errorf("column %q expects *float64, got %T", col, v)
		}
		if col == "latitude" {
			r.Latitude = f
		} else {
			r.Longitude = f
		}
		return nil
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("column %q expects string, got %T", col, v)
	}
	switch col {
	case "reference_number":
		r.ReferenceNumber = s
	case "date":
		r.Date = s
	case "start_time":
		r.StartTime = s
	case "sector":
		r.Sector = s
	case "zone":
		r.Zone = s
	case "shift":
		r.Shift = s
	case "place":
		r.Place = s
	case "vehicle_type":
		r.VehicleType = s
	case "vehicle_number":
		r.VehicleNumber = s
	case "plate":
		r.Plate = s
	case "driver_name":
		r.DriverName = s
	case "driver_id":
		r.DriverID = s
	case "incidence_type":
		r.IncidenceType = s
	case "origin":
		r.Origin = s
	case "narrative":
		r.Narrative = s
	case "zonal_supervisor":
		r.ZonalSupervisor = s
	case "general_supervisor":
		r.GeneralSupervisor = s
	}
	return nil
}
