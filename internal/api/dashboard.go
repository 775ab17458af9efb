package api

import (
	"net/http"
	"time"

	"github.com/medops/ot-scheduling/internal/report"
	"github.com/medops/ot-scheduling/internal/resource"
)

type DashboardResponse struct {
	Requests  *report.Dashboard    `json:"requests"`
	Date      string               `json:"date"`
	Available []report.ResourceDay `json:"available_resources"`
}

func dashboardHandler(rep *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format(resource.DateLayout)
		}
		if !resource.ValidDate(date) {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		dash, err := rep.Dashboard(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		available, err := rep.AvailableOn(r.Context(), date)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DashboardResponse{
			Requests:  dash,
			Date:      date,
			Available: available,
		})
	}
}
