package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
)

// DateLayout is the calendar-day format of the reporting endpoints.
const DateLayout = "2006-01-02"

func queryValue(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func invalidQuery(key, message string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ParseQueryInt returns defaultVal when key is absent and rejects values
// outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, defaultVal, lo, hi int) (int, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(key, "query parameter must be numeric", nil)
	}
	if value < lo || value > hi {
		return 0, invalidQuery(key, "query parameter out of range", map[string]any{"min": lo, "max": hi})
	}
	return value, nil
}

// ParseQueryDate reads a YYYY-MM-DD parameter as midnight in loc. An absent
// parameter yields fallback.
func ParseQueryDate(r *http.Request, key string, loc *time.Location, fallback time.Time) (time.Time, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return fallback, nil
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, invalidQuery(key, "date must be YYYY-MM-DD", nil)
	}
	return day, nil
}
