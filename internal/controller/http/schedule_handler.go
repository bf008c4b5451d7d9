package http

import (
	"fmt"
	"net/http"

	"github.com/expertdesk/availability/internal/model"
	"github.com/expertdesk/availability/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	schedule *service.ScheduleService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewScheduleHandler(schedule *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedule: schedule,
		validate: validator.New(),
		logger:   logger,
	}
}

type patternRequest struct {
	Name       string            `json:"name" validate:"required"`
	DaysOfWeek []int             `json:"days_of_week" validate:"required,min=1,dive,min=1,max=7"`
	TimeSlots  []model.SlotInput `json:"time_slots" validate:"required,min=1"`
	ValidFrom  model.Date        `json:"valid_from"`
	ValidTo    model.Date        `json:"valid_to"`
	IsActive   *bool             `json:"is_active"`
}

type overrideRequest struct {
	Date      model.Date        `json:"date"`
	Type      string            `json:"type" validate:"required,oneof=override unavailable"`
	TimeSlots []model.SlotInput `json:"time_slots"`
}

func (h *ScheduleHandler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", service.ErrValidation, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return nil
}

func (h *ScheduleHandler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	patterns, err := h.schedule.ListPatterns(r.Context(), expertID)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, patterns)
}

func (h *ScheduleHandler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	var req patternRequest
	if err := h.decode(r, &req); err != nil {
		writeError(h.logger, w, err)
		return
	}

	pattern, err := h.schedule.CreatePattern(r.Context(), expertID, patternInput(req))
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, pattern)
}

func (h *ScheduleHandler) UpdatePattern(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	var req patternRequest
	if err := h.decode(r, &req); err != nil {
		writeError(h.logger, w, err)
		return
	}

	pattern, err := h.schedule.UpdatePattern(r.Context(), expertID, id, patternInput(req))
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, pattern)
}

func (h *ScheduleHandler) DeletePattern(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	if err := h.schedule.DeletePattern(r.Context(), expertID, id); err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *ScheduleHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
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

	overrides, err := h.schedule.ListOverrides(r.Context(), expertID, from, to)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, overrides)
}

func (h *ScheduleHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	var req overrideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(h.logger, w, err)
		return
	}

	override, err := h.schedule.CreateOverride(r.Context(), expertID, overrideInput(req))
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, override)
}

func (h *ScheduleHandler) UpdateOverride(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	var req overrideRequest
	if err := h.decode(r, &req); err != nil {
		writeError(h.logger, w, err)
		return
	}

	override, err := h.schedule.UpdateOverride(r.Context(), expertID, id, overrideInput(req))
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, override)
}

func (h *ScheduleHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	expertID, err := expertIDParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	if err := h.schedule.DeleteOverride(r.Context(), expertID, id); err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func patternInput(req patternRequest) service.PatternInput {
	return service.PatternInput{
		Name:       req.Name,
		DaysOfWeek: req.DaysOfWeek,
		TimeSlots:  req.TimeSlots,
		ValidFrom:  req.ValidFrom,
		ValidTo:    req.ValidTo,
		IsActive:   req.IsActive,
	}
}

func overrideInput(req overrideRequest) service.OverrideInput {
	return service.OverrideInput{
		Date:      req.Date,
		Type:      model.OverrideType(req.Type),
		TimeSlots: req.TimeSlots,
	}
}
