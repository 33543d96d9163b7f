package http

import (
	"net/http"
	"strings"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/hoursbank"
	"github.com/cmlabs-hris/timebank-backend-go/internal/handler/http/response"
)

type HoursBankHandler interface {
	Compute(w http.ResponseWriter, r *http.Request)
	Snapshots(w http.ResponseWriter, r *http.Request)
}

type hoursBankHandlerImpl struct {
	hoursBankService hoursbank.Service
	snapshotRepo     hoursbank.SnapshotRepository
}

func NewHoursBankHandler(hoursBankService hoursbank.Service, snapshotRepo hoursbank.SnapshotRepository) HoursBankHandler {
	return &hoursBankHandlerImpl{
		hoursBankService: hoursBankService,
		snapshotRepo:     snapshotRepo,
	}
}

// Compute recalculates balances live from punches and the ERP.
func (h *hoursBankHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	query := hoursbank.Query{}

	for _, raw := range r.URL.Query()["employee_id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				query.UserIDs = append(query.UserIDs, id)
			}
		}
	}
	if workSiteID := r.URL.Query().Get("work_site_id"); workSiteID != "" {
		query.WorkSiteID = &workSiteID
	}

	result, err := h.hoursBankService.Compute(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.ToResponse(), &response.Meta{
		Total:  len(result.Entries),
		Failed: len(result.Failed),
	})
}

// Snapshots returns the balances stored by the last scheduled refresh.
func (h *hoursBankHandlerImpl) Snapshots(w http.ResponseWriter, r *http.Request) {
	entries, err := h.snapshotRepo.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, toEntryResponses(entries), &response.Meta{Total: len(entries)})
}

func toEntryResponses(entries []hoursbank.Entry) []hoursbank.EntryResponse {
	out := make([]hoursbank.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToResponse())
	}
	return out
}
