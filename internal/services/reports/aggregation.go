package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/xelth-com/sisifo/internal/models"
)

// IncidenceCount is the number of partes of one incidence type
type IncidenceCount struct {
	IncidenceType string `json:"incidence_type"`
	Count         int64  `json:"count"`
}

// ZoneCounts maps each zone with activity to its incidence counts
type ZoneCounts map[models.Zone][]IncidenceCount

// UserZoneCount attributes partes to the operator who created them
type UserZoneCount struct {
	UserID   string      `json:"user_id"`
	UserName string      `json:"user_name"`
	Zone     models.Zone `json:"zone"`
	Count    int64       `json:"count"`
}

// CountByZoneAndIncidence groups the partes of one date and shift by zone
// and incidence type. Zones outside NORTH/CENTER/SOUTH are skipped. Within a
// zone the groups are ordered by count, highest first; ties keep incidence
// type order. Every call queries the store.
func (s *Service) CountByZoneAndIncidence(ctx context.Context, date, shift string) (ZoneCounts, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(shift) == "" {
		return nil, validationf("shift is required")
	}

	rows, err := s.store.CountByZoneAndIncidence(ctx, day, ShiftSpellings(shift))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	result := ZoneCounts{}
	index := map[models.Zone]map[string]int{}
	for _, row := range rows {
		zone, ok := NormalizeZone(row.Zone)
		if !ok {
			continue
		}
		incidence := canonicalIncidence(row.IncidenceType)
		if index[zone] == nil {
			index[zone] = map[string]int{}
		}
		if i, seen := index[zone][incidence]; seen {
			result[zone][i].Count += row.Count
			continue
		}
		index[zone][incidence] = len(result[zone])
		result[zone] = append(result[zone], IncidenceCount{IncidenceType: incidence, Count: row.Count})
	}

	for zone := range result {
		groups := result[zone]
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	}
	return result, nil
}

// CountByUserAndZone totals partes per creating user and zone, using the
// same zone normalization and skip policy as CountByZoneAndIncidence
func (s *Service) CountByUserAndZone(ctx context.Context) ([]UserZoneCount, error) {
	rows, err := s.store.CountByUserAndZone(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	type key struct {
		user string
		zone models.Zone
	}
	index := map[key]int{}
	out := []UserZoneCount{}
	for _, row := range rows {
		zone, ok := NormalizeZone(row.Zone)
		if !ok {
			continue
		}
		k := key{row.UserID, zone}
		if i, seen := index[k]; seen {
			out[i].Count += row.Count
			continue
		}
		name := row.UserName
		if name == "" {
			name = row.Username
		}
		index[k] = len(out)
		out = append(out, UserZoneCount{UserID: row.UserID, UserName: name, Zone: zone, Count: row.Count})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserName != out[j].UserName {
			return out[i].UserName < out[j].UserName
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return zoneRank(out[i].Zone) < zoneRank(out[j].Zone)
	})
	return out, nil
}

func zoneRank(z models.Zone) int {
	if i := lo.IndexOf(models.Zones, z); i >= 0 {
		return i
	}
	return len(models.Zones)
}
