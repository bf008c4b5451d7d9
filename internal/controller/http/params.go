package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/expertdesk/availability/internal/model"
	"github.com/expertdesk/availability/internal/service"
	"github.com/go-chi/chi/v5"
)

func badParam(name, value string) error {
	return fmt.Errorf("%w: invalid %s %q", service.ErrValidation, name, value)
}

func expertIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "expertID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badParam("expert id", raw)
	}
	return id, nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badParam("id", raw)
	}
	return id, nil
}

func rangeParams(r *http.Request) (model.Date, model.Date, error) {
	rawFrom := r.URL.Query().Get("from")
	rawTo := r.URL.Query().Get("to")
	if rawFrom == "" || rawTo == "" {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: from and to are required", service.ErrValidation)
	}

	from, err := model.ParseDate(rawFrom)
	if err != nil {
		return model.Date{}, model.Date{}, badParam("from", rawFrom)
	}
	to, err := model.ParseDate(rawTo)
	if err != nil {
		return model.Date{}, model.Date{}, badParam("to", rawTo)
	}
	if to.Before(from) {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: from must not be after to", service.ErrValidation)
	}
	if from.AddDays(maxRangeDays).Before(to) {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: range is longer than %d days", service.ErrValidation, maxRangeDays)
	}
	return from, to, nil
}
