package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timebank-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
)

type AttendanceHandler interface {
	Grid(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	gridService attendance.GridService
}

func NewAttendanceHandler(gridService attendance.GridService) AttendanceHandler {
	return &attendanceHandlerImpl{
		gridService: gridService,
	}
}

// Grid implements AttendanceHandler.
func (h *attendanceHandlerImpl) Grid(w http.ResponseWriter, r *http.Request) {
	query := attendance.GridQuery{}

	year, month := r.URL.Query().Get("year"), r.URL.Query().Get("month")
	if !validator.IsNumeric(year) || !validator.IsNumeric(month) {
		response.HandleError(w, fmt.Errorf("%w: year and month are required numbers", attendance.ErrInvalidPeriod))
		return
	}
	query.Year, _ = strconv.Atoi(year)
	query.Month, _ = strconv.Atoi(month)

	// employee_id may repeat or carry a comma separated list
	for _, raw := range r.URL.Query()["employee_id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				query.EmployeeIDs = append(query.EmployeeIDs, id)
			}
		}
	}

	if workSiteID := r.URL.Query().Get("work_site_id"); workSiteID != "" {
		query.WorkSiteID = &workSiteID
	}

	grid, err := h.gridService.LoadGrid(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if grid.FailedCount > 0 {
		response.SuccessWithMeta(w, grid, &response.Meta{Total: grid.LoadedCount + grid.FailedCount, Failed: grid.FailedCount})
		return
	}
	response.Success(w, grid)
}
