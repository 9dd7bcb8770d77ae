package reports

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xelth-com/sisifo/internal/models"
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ñ", "N", "Ü", "U",
)

// fieldAliases maps squashed client keys to canonical field names.
// Mobile forms and the console send the same field under many names.
var fieldAliases = map[string]string{}

// aliasRank orders the aliases of one field; lower wins a collision
var aliasRank = map[string]int{}

func init() {
	canonical := map[string][]string{
		"reference_number":   {"referencenumber", "reference", "ref", "nroparte", "numeroparte", "nparte", "parte", "partefisico", "numero"},
		"date":               {"date", "fecha"},
		"start_time":         {"starttime", "horainicio", "hora", "inicio"},
		"end_time":           {"endtime", "horafin", "fin"},
		"sector":             {"sector"},
		"zone":               {"zone", "zona"},
		"shift":              {"shift", "turno"},
		"place":              {"place", "lugar", "direccion"},
		"latitude":           {"latitude", "lat", "latitud"},
		"longitude":          {"longitude", "lng", "lon", "longitud"},
		"vehicle_type":       {"vehicletype", "tipovehiculo", "unidad"},
		"vehicle_number":     {"vehiclenumber", "numerovehiculo", "nrounidad", "numerounidad"},
		"plate":              {"plate", "placa"},
		"driver_name":        {"drivername", "conductor", "nombreconductor"},
		"driver_id":          {"driverid", "dniconductor", "documentoconductor"},
		"incidence_type":     {"incidencetype", "incidence", "incidencia", "tipoincidencia", "tipodeincidencia"},
		"origin":             {"origin", "origen"},
		"narrative":          {"narrative", "descripcion", "relato", "narracion", "observaciones"},
		"zonal_supervisor":   {"zonalsupervisor", "supervisorzonal"},
		"general_supervisor": {"generalsupervisor", "supervisorgeneral"},
		"participants":       {"participants", "participantes", "involucrados"},
		"id":                 {"id"},
		"owner_id":           {"ownerid", "userid", "usuarioid", "idusuario"},
		"created_at":         {"createdat"},
		"updated_at":         {"updatedat"},
		"evidence":           {"evidence", "evidencias"},
	}
	for field, aliases := range canonical {
		for i, a := range aliases {
			fieldAliases[a] = field
			aliasRank[a] = i
		}
	}
}

func squash(key string) string {
	key = strings.ToLower(accentReplacer.Replace(strings.TrimSpace(key)))
	var b strings.Builder
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalField returns the canonical name for a client key, or "" if unknown
func CanonicalField(key string) string {
	return fieldAliases[squash(key)]
}

// fieldValue is one candidate value for a canonical field
type fieldValue struct {
	key   string
	rank  int
	value string
}

// beats reports whether v should replace cur: non-empty first, then the
// lower rank, then the lexically smaller raw key
func (v fieldValue) beats(cur fieldValue) bool {
	if (v.value != "") != (cur.value != "") {
		return v.value != ""
	}
	if v.rank != cur.rank {
		return v.rank < cur.rank
	}
	return v.key < cur.key
}

// NormalizeFields renames aliased keys to canonical names and trims values.
// Unknown keys are kept under their original name so callers can reject them.
// When several keys map to one field the exact canonical key wins, then the
// alias listed first in the alias table. Empty values never shadow filled ones.
func NormalizeFields(raw map[string]string) map[string]string {
	best := make(map[string]fieldValue, len(raw))
	for k, v := range raw {
		name := CanonicalField(k)
		rank := -1
		switch {
		case name == "":
			name = k
		case k != name:
			rank = aliasRank[squash(k)]
		}
		cand := fieldValue{key: k, rank: rank, value: strings.TrimSpace(v)}
		if cur, ok := best[name]; ok && !cand.beats(cur) {
			continue
		}
		best[name] = cand
	}

	out := make(map[string]string, len(best))
	for name, fv := range best {
		out[name] = fv.value
	}
	return out
}

// FieldsFromJSON flattens a decoded JSON object into string fields
func FieldsFromJSON(raw map[string]any) (map[string]string, error) {
	flat := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			flat[k] = ""
		case string:
			flat[k] = val
		case float64:
			flat[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			flat[k] = strconv.FormatBool(val)
		case []any, map[string]any:
			data, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			flat[k] = string(data)
		default:
			flat[k] = fmt.Sprint(val)
		}
	}
	return NormalizeFields(flat), nil
}

// InputFromFields builds a CreateInput from canonical fields
func InputFromFields(fields map[string]string) (CreateInput, error) {
	in := CreateInput{
		ReferenceNumber:   fields["reference_number"],
		Date:              fields["date"],
		StartTime:         fields["start_time"],
		Sector:            fields["sector"],
		Zone:              fields["zone"],
		Shift:             fields["shift"],
		Place:             fields["place"],
		VehicleType:       fields["vehicle_type"],
		VehicleNumber:     fields["vehicle_number"],
		Plate:             fields["plate"],
		DriverName:        fields["driver_name"],
		DriverID:          fields["driver_id"],
		IncidenceType:     fields["incidence_type"],
		Origin:            fields["origin"],
		Narrative:         fields["narrative"],
		ZonalSupervisor:   fields["zonal_supervisor"],
		GeneralSupervisor: fields["general_supervisor"],
	}

	var err error
	if in.Latitude, err = parseCoordinate("latitude", fields["latitude"], 90); err != nil {
		return in, err
	}
	if in.Longitude, err = parseCoordinate("longitude", fields["longitude"], 180); err != nil {
		return in, err
	}
	if in.Participants, err = ParseParticipants(fields["participants"]); err != nil {
		return in, err
	}
	return in, nil
}

// ParseParticipants decodes the JSON array sent with a form. Entries with
// an empty name are dropped; order is preserved.
func ParseParticipants(raw string) ([]models.Participant, error) {
	out := []models.Participant{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}

	var entries []map[string]any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, validationf("participants must be a JSON array: %v", err)
	}
	for _, e := range entries {
		p := models.Participant{}
		for k, v := range e {
			s := strings.TrimSpace(fmt.Sprint(v))
			switch squash(k) {
			case "name", "nombre", "nombres":
				p.Name = s
			case "idnumber", "dni", "documento", "nrodocumento":
				p.IDNumber = s
			case "role", "rol", "cargo", "condicion", "tipo":
				p.Role = s
			}
		}
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func parseCoordinate(name, raw string, limit float64) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || v < -limit || v > limit {
		return nil, validationf("invalid %s %q", name, raw)
	}
	return &v, nil
}

// NormalizeZone maps a zone spelling to the fixed set; ok is false when unrecognized
func NormalizeZone(raw string) (models.Zone, bool) {
	z := strings.ToUpper(accentReplacer.Replace(strings.TrimSpace(raw)))
	z = strings.TrimPrefix(z, "ZONA ")
	z = strings.TrimPrefix(z, "ZONE ")
	switch z {
	case "NORTH", "NORTE", "N":
		return models.ZoneNorth, true
	case "CENTER", "CENTRE", "CENTRO", "C":
		return models.ZoneCenter, true
	case "SOUTH", "SUR", "S":
		return models.ZoneSouth, true
	}
	return "", false
}

var shiftAliases = map[models.Shift][]string{
	models.ShiftDay:   {"DAY", "DIA", "DÍA", "DIURNO", "MAÑANA", "MANANA"},
	models.ShiftNight: {"NIGHT", "NOCHE", "NOCTURNO"},
}

// NormalizeShift maps a shift spelling to DAY/NIGHT; ok is false when unrecognized
func NormalizeShift(raw string) (models.Shift, bool) {
	s := strings.ToUpper(accentReplacer.Replace(strings.TrimSpace(raw)))
	for shift, aliases := range shiftAliases {
		for _, a := range aliases {
			if s == accentReplacer.Replace(a) {
				return shift, true
			}
		}
	}
	return "", false
}

// ShiftSpellings returns the upper-cased values matching raw in storage
func ShiftSpellings(raw string) []string {
	if shift, ok := NormalizeShift(raw); ok {
		return append([]string(nil), shiftAliases[shift]...)
	}
	return []string{strings.ToUpper(strings.TrimSpace(raw))}
}

// canonicalZone stores recognized zones canonically and keeps anything else as sent
func canonicalZone(raw string) string {
	if z, ok := NormalizeZone(raw); ok {
		return string(z)
	}
	return strings.TrimSpace(raw)
}

func canonicalShift(raw string) string {
	if s, ok := NormalizeShift(raw); ok {
		return string(s)
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

func canonicalIncidence(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY and returns YYYY-MM-DD
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{models.DateLayout, "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(models.DateLayout), nil
		}
	}
	return "", validationf("invalid date %q (expected YYYY-MM-DD)", raw)
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS and returns HH:MM
func ParseTimeOfDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{models.TimeLayout, "15:04:05", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(raw)); err == nil {
			return t.Format(models.TimeLayout), nil
		}
	}
	return "", validationf("invalid time %q (expected HH:MM)", raw)
}
