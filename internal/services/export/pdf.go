// Package export renders partes and aggregations as PDF, Excel and ZIP documents.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
)

const (
	pageWidth   = 210.0
	marginLeft  = 15.0
	contentW    = pageWidth - 2*marginLeft
	labelWidth  = 55.0
	lineHeight  = 6.0
	qrSize      = 32.0
	titleHeight = 10.0
)

// ReportPDF renders one parte. link, when set, is encoded as a QR code in the
// top right corner so the printed copy leads back to the console.
func ReportPDF(r *models.Report, link string) ([]byte, error) {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentW-qrSize, titleHeight, tr(fmt.Sprintf("Parte #%d", r.ID)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentW-qrSize, lineHeight, tr("Nro. "+r.ReferenceNumber+" - "+stateLabel(r)), "", 1, "L", false, 0, "")

	if link != "" {
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("qr", pageWidth-marginLeft-qrSize, 10, qrSize, qrSize, false, opts, 0, "")
	}
	pdf.SetY(10 + qrSize + 2)

	section(pdf, tr, "Datos generales")
	field(pdf, tr, "Fecha", r.Date)
	field(pdf, tr, "Hora inicio", r.StartTime)
	field(pdf, tr, "Hora fin", deref(r.EndTime))
	field(pdf, tr, "Turno", r.Shift)
	field(pdf, tr, "Zona", r.Zone)
	field(pdf, tr, "Sector", r.Sector)
	field(pdf, tr, "Lugar", r.Place)
	if r.Latitude != nil && r.Longitude != nil {
		field(pdf, tr, "Coordenadas", fmt.Sprintf("%.6f, %.6f", *r.Latitude, *r.Longitude))
	}
	field(pdf, tr, "Incidencia", r.IncidenceType)
	field(pdf, tr, "Origen", r.Origin)

	section(pdf, tr, "Unidad")
	field(pdf, tr, "Tipo de unidad", r.VehicleType)
	field(pdf, tr, "Nro. unidad", r.VehicleNumber)
	field(pdf, tr, "Placa", r.Plate)
	field(pdf, tr, "Conductor", r.DriverName)
	field(pdf, tr, "DNI conductor", r.DriverID)

	section(pdf, tr, "Supervision")
	field(pdf, tr, "Supervisor zonal", r.ZonalSupervisor)
	field(pdf, tr, "Supervisor general", r.GeneralSupervisor)

	if len(r.Participants) > 0 {
		section(pdf, tr, "Participantes")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(80, lineHeight, tr("Nombre"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, lineHeight, tr("Documento"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-120, lineHeight, tr("Rol"), "1", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, p := range r.Participants {
			pdf.CellFormat(80, lineHeight, tr(p.Name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, lineHeight, tr(p.IDNumber), "1", 0, "L", false, 0, "")
			pdf.CellFormat(contentW-120, lineHeight, tr(p.Role), "1", 1, "L", false, 0, "")
		}
	}

	section(pdf, tr, "Relato")
	pdf.SetFont("Arial", "", 10)
	narrative := r.Narrative
	if strings.TrimSpace(narrative) == "" {
		narrative = "-"
	}
	pdf.MultiCell(contentW, 5, tr(narrative), "", "L", false)

	section(pdf, tr, fmt.Sprintf("Evidencias (%d)", len(r.Evidence)))
	pdf.SetFont("Arial", "", 9)
	for i, ev := range r.Evidence {
		line := fmt.Sprintf("%d. [%s] %s", i+1, ev.Kind, ev.OriginalName)
		pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

// ZoneSummaryPDF renders the zone/incidence table of one date and shift
func ZoneSummaryPDF(date, shift string, counts reports.ZoneCounts) ([]byte, error) {
	pdf := newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentW, titleHeight, tr("Resumen de incidencias por zona"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentW, lineHeight, tr(fmt.Sprintf("Fecha %s - Turno %s", date, shift)), "", 1, "L", false, 0, "")

	var total int64
	for _, zone := range models.Zones {
		groups := counts[zone]
		section(pdf, tr, fmt.Sprintf("Zona %s", zone))
		if len(groups) == 0 {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(contentW, lineHeight, tr("Sin incidencias"), "", 1, "L", false, 0, "")
			continue
		}
		pdf.SetFont("Arial", "", 10)
		for _, g := range groups {
			pdf.CellFormat(contentW-30, lineHeight, tr(g.IncidenceType), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, lineHeight, fmt.Sprint(g.Count), "1", 1, "R", false, 0, "")
			total += g.Count
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(contentW-30, lineHeight, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, lineHeight, fmt.Sprint(total), "", 1, "R", false, 0, "")

	return output(pdf)
}

func newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 10, marginLeft)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("Sisifo", true)
	return pdf
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(contentW, 7, tr(title), "", 1, "L", true, 0, "")
}

func field(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(labelWidth, lineHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(contentW-labelWidth, lineHeight, tr(value), "", 1, "L", false, 0, "")
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stateLabel(r *models.Report) string {
	if r.IsClosed() {
		return "CERRADO"
	}
	return "ABIERTO"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
