package export

import (
	"fmt"

	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Resumen"
	ReportsSheet = "Partes"
)

// ZoneSummaryXLSX writes one row per (zone, incidence type) in zone display order
func ZoneSummaryXLSX(date, shift string, counts reports.ZoneCounts) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{"Fecha", date, "Turno", shift}); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SummarySheet, 3, []string{"Zona", "Incidencia", "Cantidad"}); err != nil {
		return nil, err
	}

	row := 4
	for _, zone := range models.Zones {
		for _, g := range counts[zone] {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(SummarySheet, cell, &[]any{string(zone), g.IncidenceType, g.Count}); err != nil {
				return nil, err
			}
			row++
		}
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 12)
	_ = f.SetColWidth(SummarySheet, "B", "B", 32)

	return write(f)
}

var reportColumns = []string{
	"ID", "Nro. parte", "Fecha", "Hora inicio", "Hora fin", "Estado", "Turno", "Zona",
	"Sector", "Lugar", "Incidencia", "Origen", "Unidad", "Nro. unidad", "Placa",
	"Conductor", "Supervisor zonal", "Supervisor general", "Participantes", "Relato",
}

// ReportsXLSX writes a listing of partes, one per row
func ReportsXLSX(list []models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportsSheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, ReportsSheet, 1, reportColumns); err != nil {
		return nil, err
	}

	for i, r := range list {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			r.ID, r.ReferenceNumber, r.Date, r.StartTime, deref(r.EndTime), r.State(), r.Shift, r.Zone,
			r.Sector, r.Place, r.IncidenceType, r.Origin, r.VehicleType, r.VehicleNumber, r.Plate,
			r.DriverName, r.ZonalSupervisor, r.GeneralSupervisor, len(r.Participants), r.Narrative,
		}
		if err := f.SetSheetRow(ReportsSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(ReportsSheet, "B", "T", 16)

	return write(f)
}

func writeHeader(f *excelize.File, sheet string, row int, titles []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
