package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/utils"
)

const (
	maxUploadBytes   = 256 << 20
	multipartMemory  = 32 << 20
	evidenceField    = "files"
	videoFilesField  = "video_files"
	photoAliasField  = "fotos"
	videoAliasField  = "videos"
	participantsForm = "participants"
)

// createReport accepts multipart forms from the mobile app (fields, files,
// participants as a JSON string) or a plain JSON object
func (r *Router) createReport(w http.ResponseWriter, req *http.Request) {
	user := currentUser(req)
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)

	var (
		fields  map[string]string
		uploads []reports.Upload
	)
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		if err := req.ParseMultipartForm(multipartMemory); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		defer req.MultipartForm.RemoveAll()

		fields = formFields(req.MultipartForm)
		var closers []multipart.File
		defer func() {
			for _, c := range closers {
				c.Close()
			}
		}()
		for _, name := range []string{evidenceField, photoAliasField, videoFilesField, videoAliasField} {
			video := name == videoFilesField || name == videoAliasField
			for _, fh := range req.MultipartForm.File[name] {
				f, err := fh.Open()
				if err != nil {
					respondError(w, http.StatusBadRequest, fmt.Sprintf("Cannot read upload %s", fh.Filename))
					return
				}
				closers = append(closers, f)
				uploads = append(uploads, reports.Upload{
					Name:        fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Video:       video,
					Body:        f,
				})
			}
		}
	} else {
		var err error
		if fields, err = decodeFields(req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	in, err := reports.InputFromFields(fields)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}

	// Field devices resend the whole form when a response is lost
	key := strings.TrimSpace(req.Header.Get("Idempotency-Key"))
	if key != "" {
		key = user.ID + ":" + key
		id, state := r.recent.Begin(key)
		switch state {
		case utils.DedupDone:
			report, err := r.reports.GetByID(req.Context(), id)
			if err != nil {
				respondServiceError(w, req, err)
				return
			}
			respondMessage(w, http.StatusOK, "Parte already created", report)
			return
		case utils.DedupPending:
			respondError(w, http.StatusConflict, "A submission with this Idempotency-Key is in progress")
			return
		}
	}

	report, err := r.reports.Create(req.Context(), in, user.ID, uploads)
	if err != nil {
		if key != "" {
			r.recent.Abort(key)
		}
		respondServiceError(w, req, err)
		return
	}
	if key != "" {
		r.recent.Complete(key, report.ID)
	}
	respondMessage(w, http.StatusCreated, "Parte created", report)
}

// closeReport sets the end time of an open parte
func (r *Router) closeReport(w http.ResponseWriter, req *http.Request) {
	id, ok := reportID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	fields, err := decodeFields(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	report, err := r.reports.Close(req.Context(), id, fields["end_time"], currentUser(req).ID)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	respondMessage(w, http.StatusOK, "Parte closed", report)
}

// updateReport applies a partial update of descriptive fields
func (r *Router) updateReport(w http.ResponseWriter, req *http.Request) {
	id, ok := reportID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	fields, err := decodeFields(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	report, err := r.reports.Update(req.Context(), id, fields, currentUser(req).ID)
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	respondMessage(w, http.StatusOK, "Parte updated", report)
}

// getReport returns one parte with its evidence
func (r *Router) getReport(w http.ResponseWriter, req *http.Request) {
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
	respondJSON(w, http.StatusOK, report)
}

// listReports filters by date/shift when either is given, otherwise lists
// the partes of user_id (the caller by default)
func (r *Router) listReports(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	date, shift := q.Get("date"), firstNonEmpty(q.Get("shift"), q.Get("turno"))

	var (
		list []models.Report
		err  error
	)
	if date != "" || shift != "" {
		list, err = r.reports.ListByFilter(req.Context(), date, shift)
	} else {
		userID := q.Get("user_id")
		if userID == "" {
			userID = currentUser(req).ID
		}
		list, err = r.reports.ListByUser(req.Context(), userID)
	}
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// decodeFields reads a JSON object body into canonical string fields.
// An empty body yields no fields.
func decodeFields(req *http.Request) (map[string]string, error) {
	raw := map[string]any{}
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return reports.FieldsFromJSON(raw)
}

// formFields takes the first value of each multipart field
func formFields(form *multipart.Form) map[string]string {
	raw := make(map[string]string, len(form.Value))
	for k, values := range form.Value {
		if len(values) > 0 {
			raw[k] = values[0]
		}
	}
	return reports.NormalizeFields(raw)
}
