package http

import (
	"net/http"

	"github.com/expertdesk/availability/internal/model"
	"github.com/expertdesk/availability/internal/service"
	"go.uber.org/zap"
)

// maxRangeDays bounds range queries so one request cannot walk years of dates.
const maxRangeDays = 366

type AvailabilityHandler struct {
	availability *service.AvailabilityService
	logger       *zap.Logger
}

func NewAvailabilityHandler(availability *service.AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, logger: logger}
}

type dayResponse struct {
	*model.ResolvedDaySchedule
	Error string `json:"error,omitempty"`
}

// GetSchedule serves both forms of the query: ?date= for one day,
// ?from=&to= for a range.
func (h *AvailabilityHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			writeError(h.logger, w, badParam("date", raw))
			return
		}
		day, err := h.availability.ResolveDay(r.Context(), expertID, date)
		if err != nil {
			writeError(h.logger, w, err)
			return
		}
		writeSuccess(w, http.StatusOK, dayResponse{ResolvedDaySchedule: day})
		return
	}

	from, to, err := rangeParams(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	days, err := h.availability.ResolveRange(r.Context(), expertID, from, to)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	out := make([]dayResponse, len(days))
	for i, day := range days {
		out[i] = dayResponse{ResolvedDaySchedule: day}
		if day.Err != nil {
			if service.IsDefect(day.Err) {
				out[i].Error = "unable to resolve schedule"
			} else {
				out[i].Error = "resolution failed"
			}
		}
	}
	writeSuccess(w, http.StatusOK, out)
}

// GetAvailableDates serves the calendar-highlighting summary.
func (h *AvailabilityHandler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	from, to, err := rangeParams(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	dates, err := h.availability.SummarizeAvailableDates(r.Context(), expertID, from, to)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, dates)
}
