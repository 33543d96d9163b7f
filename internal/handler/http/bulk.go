package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/bulk"
	"github.com/cmlabs-hris/timebank-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timebank-backend-go/internal/handler/http/response"
)

// maxBulkBody bounds a bulk request; a month of targets for a few hundred
// employees stays well below it.
const maxBulkBody = 4 << 20

type BulkHandler interface {
	CreatePunches(w http.ResponseWriter, r *http.Request)
	DeletePunches(w http.ResponseWriter, r *http.Request)
	DeleteRecords(w http.ResponseWriter, r *http.Request)
	InsertAbsences(w http.ResponseWriter, r *http.Request)
	InsertOvertimes(w http.ResponseWriter, r *http.Request)
}

type bulkHandlerImpl struct {
	bulkService bulk.Service
}

func NewBulkHandler(bulkService bulk.Service) BulkHandler {
	return &bulkHandlerImpl{
		bulkService: bulkService,
	}
}

// CreatePunches implements BulkHandler.
func (h *bulkHandlerImpl) CreatePunches(w http.ResponseWriter, r *http.Request) {
	var req bulk.CreatePunchesRequest
	if !decodeBulk(w, r, &req) {
		return
	}
	req.RequestedBy = middleware.UserID(r)

	summary, err := h.bulkService.CreatePunches(r.Context(), req)
	writeSummary(w, summary, err)
}

// DeletePunches implements BulkHandler.
func (h *bulkHandlerImpl) DeletePunches(w http.ResponseWriter, r *http.Request) {
	var req bulk.DeletePunchesRequest
	if !decodeBulk(w, r, &req) {
		return
	}
	req.RequestedBy = middleware.UserID(r)

	summary, err := h.bulkService.DeletePunches(r.Context(), req)
	writeSummary(w, summary, err)
}

// DeleteRecords implements BulkHandler.
func (h *bulkHandlerImpl) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	var req bulk.DeleteRecordsRequest
	if !decodeBulk(w, r, &req) {
		return
	}
	req.RequestedBy = middleware.UserID(r)

	summary, err := h.bulkService.DeleteRecords(r.Context(), req)
	writeSummary(w, summary, err)
}

// InsertAbsences implements BulkHandler.
func (h *bulkHandlerImpl) InsertAbsences(w http.ResponseWriter, r *http.Request) {
	var req bulk.InsertAbsencesRequest
	if !decodeBulk(w, r, &req) {
		return
	}
	req.RequestedBy = middleware.UserID(r)

	summary, err := h.bulkService.InsertAbsences(r.Context(), req)
	writeSummary(w, summary, err)
}

// InsertOvertimes implements BulkHandler.
func (h *bulkHandlerImpl) InsertOvertimes(w http.ResponseWriter, r *http.Request) {
	var req bulk.InsertOvertimesRequest
	if !decodeBulk(w, r, &req) {
		return
	}
	req.RequestedBy = middleware.UserID(r)

	summary, err := h.bulkService.InsertOvertimes(r.Context(), req)
	writeSummary(w, summary, err)
}

func decodeBulk(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error("Failed to decode bulk request", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

func writeSummary(w http.ResponseWriter, summary bulk.Summary, err error) {
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := fmt.Sprintf("%d of %d items succeeded", summary.SucceededCount, summary.Total)
	if summary.LinkedFailed > 0 {
		message += fmt.Sprintf(", %d linked entries failed", summary.LinkedFailed)
	}
	response.SuccessWithMessage(w, message, summary)
}
