package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/xelth-com/sisifo/internal/services/export"
	"github.com/xelth-com/sisifo/internal/services/reports"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	zipContentType  = "application/zip"
)

// reportPDF renders one parte as a PDF with a QR link to the console
func (r *Router) reportPDF(w http.ResponseWriter, req *http.Request) {
	id, ok := reportID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	report, err := r.reports.GetByID(req.Context(), id)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}

	pdfBytes, err := export.ReportPDF(report, r.consoleLink(id))
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}
	sendFile(w, pdfContentType, fmt.Sprintf("parte_%d.pdf", id), pdfBytes)
}

// reportBundle streams a ZIP with the parte PDF and its evidence files
func (r *Router) reportBundle(w http.ResponseWriter, req *http.Request) {
	id, ok := reportID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	report, err := r.reports.GetByID(req.Context(), id)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}

	w.Header().Set("Content-Type", zipContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"parte_%d.zip\"", id))
	if err := export.Bundle(req.Context(), w, report, r.consoleLink(id), r.files); err != nil {
		// Headers are gone by now; the client sees a truncated archive
		log.Printf("❌ Bundle for parte #%d failed: %v", id, err)
	}
}

// exportZoneAggregation downloads the zone summary as pdf (default) or xlsx
func (r *Router) exportZoneAggregation(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	date, shift := q.Get("date"), firstNonEmpty(q.Get("shift"), q.Get("turno"))
	counts, err := r.reports.CountByZoneAndIncidence(req.Context(), date, shift)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	day, _ := reports.ParseDate(date)
	label := strings.ToUpper(strings.TrimSpace(shift))
	if s, ok := reports.NormalizeShift(shift); ok {
		label = string(s)
	}

	name := fmt.Sprintf("resumen_%s_%s", day, label)
	switch strings.ToLower(q.Get("format")) {
	case "", "pdf":
		data, err := export.ZoneSummaryPDF(day, label, counts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
			return
		}
		sendFile(w, pdfContentType, name+".pdf", data)
	case "xlsx", "excel":
		data, err := export.ZoneSummaryXLSX(day, label, counts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate workbook: %v", err))
			return
		}
		sendFile(w, xlsxContentType, name+".xlsx", data)
	default:
		respondError(w, http.StatusBadRequest, "format must be pdf or xlsx")
	}
}

// exportReports downloads the partes of a date/shift filter as xlsx
func (r *Router) exportReports(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	list, err := r.reports.ListByFilter(req.Context(), q.Get("date"), firstNonEmpty(q.Get("shift"), q.Get("turno")))
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	data, err := export.ReportsXLSX(list)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate workbook: %v", err))
		return
	}
	sendFile(w, xlsxContentType, "partes.xlsx", data)
}

func (r *Router) consoleLink(id uint) string {
	if r.cfg.ConsoleURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/partes/%d", r.cfg.ConsoleURL, id)
}

// sendFile sets headers for download
func sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
