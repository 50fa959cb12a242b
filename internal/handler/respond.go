package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/service"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationErrors are caller mistakes reported as 400.
var validationErrors = []error{
	service.ErrNameRequired,
	service.ErrInvalidPrice,
	service.ErrEmptyItems,
	service.ErrInvalidQuantity,
	service.ErrInvalidPaymentMethod,
	service.ErrInvalidDiscount,
	service.ErrTableRequired,
	service.ErrInvalidRange,
	service.ErrInvalidStatus,
	service.ErrInvalidSubtotal,
	service.ErrNoOrderIDs,
	service.ErrDuplicateName,
	service.ErrInvalidItemList,
	service.ErrEmptyAfterFilter,
}

// errorStatus maps a service error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrOpenOrdersExist):
		return http.StatusConflict
	case errors.Is(err, service.ErrTotalMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Unexpected errors are
// logged and hidden from the caller.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := errorStatus(err)
	switch status {
	case http.StatusInternalServerError:
		zap.S().Errorw(op, "error", err)
		writeError(w, status, "internal server error")
	case http.StatusServiceUnavailable:
		zap.S().Warnw(op, "error", err)
		writeError(w, status, "service temporarily unavailable, retry")
	default:
		writeError(w, status, err.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func urlUUID(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	return id, err == nil
}

// parseRange reads the start and end query parameters. Any format dateparse
// understands is accepted; dates without a zone are read in loc. A bare date
// as end covers that whole day.
func parseRange(r *http.Request, loc *time.Location) (time.Time, time.Time, error) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errors.New("start and end are required")
	}
	start, err := dateparse.ParseIn(rawStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start")
	}
	end, err := dateparse.ParseIn(rawEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end")
	}
	if isBareDate(rawEnd) {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return start, end, nil
}

func isBareDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func money(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

func moneyOrNil(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := money(n)
	return &s
}

// decimalString accepts JSON numbers and strings for money fields.
type decimalString struct {
	decimal.Decimal
	set bool
}

func (d *decimalString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if err := d.Decimal.UnmarshalJSON(b); err != nil {
		return err
	}
	d.set = true
	return nil
}

func textOrNil(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
