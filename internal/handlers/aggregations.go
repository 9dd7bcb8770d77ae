package handlers

import (
	"net/http"
)

// zoneAggregation returns incidence counts per zone for one date and shift
func (r *Router) zoneAggregation(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	counts, err := r.reports.CountByZoneAndIncidence(req.Context(), q.Get("date"), firstNonEmpty(q.Get("shift"), q.Get("turno")))
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// userAggregation returns per-operator totals by zone
func (r *Router) userAggregation(w http.ResponseWriter, req *http.Request) {
	rows, err := r.reports.CountByUserAndZone(req.Context())
	if err != nil {
		respondServiceError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
