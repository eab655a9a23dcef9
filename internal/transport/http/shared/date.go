package shared

import (
	"net/http"
	"time"

	"sitelabor/internal/domain/attendance"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseRange reads startDate and endDate from the query string. With
// required set both must be present.
func ParseRange(v *Validator, r *http.Request, required bool) attendance.DateRange {
	q := r.URL.Query()
	var out attendance.DateRange
	if required {
		out.From, _ = v.Date("startDate", q.Get("startDate"))
		out.To, _ = v.Date("endDate", q.Get("endDate"))
	} else {
		out.From = v.OptionalDate("startDate", q.Get("startDate"))
		out.To = v.OptionalDate("endDate", q.Get("endDate"))
	}
	v.DateOrder("startDate", attendance.NormalizeDate(out.From), "endDate", attendance.NormalizeDate(out.To))
	return out
}
