package models

import (
	"time"

	"gorm.io/datatypes"
)

// Zone is the coarse geographic grouping used by the console dashboards
type Zone string

const (
	ZoneNorth  Zone = "NORTH"
	ZoneCenter Zone = "CENTER"
	ZoneSouth  Zone = "SOUTH"
)

// Zones lists the recognized zones in display order
var Zones = []Zone{ZoneNorth, ZoneCenter, ZoneSouth}

// Shift is the duty period a parte belongs to
type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// Evidence kinds
const (
	EvidencePhoto = "photo"
	EvidenceVideo = "video"
)

// Date and time-of-day layouts stored in reports
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Participant is a person involved in a parte (witness, driver, victim...)
type Participant struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Report is a field-incident record ("parte").
// A report is Open while EndTime is empty and Closed once it is set.
type Report struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	OwnerID         string `gorm:"type:uuid;not null;index" json:"owner_id"`
	ReferenceNumber string `gorm:"not null;index" json:"reference_number"`

	Date      string  `gorm:"type:varchar(10);not null;index:idx_reports_date_shift" json:"date"`
	StartTime string  `gorm:"type:varchar(5)" json:"start_time"`
	EndTime   *string `gorm:"type:varchar(5)" json:"end_time"`

	Sector    string   `json:"sector,omitempty"`
	Zone      string   `gorm:"index" json:"zone"`
	Shift     string   `gorm:"index:idx_reports_date_shift" json:"shift"`
	Place     string   `json:"place,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	VehicleType   string `json:"vehicle_type,omitempty"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	Plate         string `json:"plate,omitempty"`
	DriverName    string `json:"driver_name,omitempty"`
	DriverID      string `json:"driver_id,omitempty"`

	IncidenceType string `gorm:"not null;index" json:"incidence_type"`
	Origin        string `json:"origin,omitempty"`
	Narrative     string `gorm:"type:text" json:"narrative,omitempty"`

	ZonalSupervisor   string `json:"zonal_supervisor,omitempty"`
	GeneralSupervisor string `json:"general_supervisor,omitempty"`

	Participants datatypes.JSONSlice[Participant] `json:"participants"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Evidence []Evidence `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"evidence"`
	Owner    *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName specifies the table name for Report model
func (Report) TableName() string {
	return "reports"
}

// IsClosed reports whether an end time has been recorded
func (r *Report) IsClosed() bool {
	return r.EndTime != nil && *r.EndTime != ""
}

// State returns "open" or "closed"
func (r *Report) State() string {
	if r.IsClosed() {
		return "closed"
	}
	return "open"
}

// Evidence is a photo or video attached to a report
type Evidence struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReportID     uint      `gorm:"not null;index" json:"report_id"`
	Kind         string    `gorm:"type:varchar(8);not null" json:"kind"`
	Path         string    `gorm:"not null" json:"path"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type,omitempty"`
	Size         int64     `json:"size"`
	URL          string    `gorm:"-" json:"url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for Evidence model
func (Evidence) TableName() string {
	return "evidence"
}
