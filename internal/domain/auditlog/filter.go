package auditlog

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default page sizes per endpoint. Callers pass the one matching their
// resource.
const (
	DefaultUsersLimit    = 10
	DefaultActivityLimit = 20
	DefaultEntityLimit   = 20
	DefaultLogsLimit     = 50

	// MaxLimit caps any client-supplied page size.
	MaxLimit = 100
)

// Filter is the typed, bounded form of the untrusted query string. All
// fields are optional except Page and Limit, which always carry defaults.
type Filter struct {
	Page       int
	Limit      int
	UserID     string
	EntityType string
	EntityID   string
	Action     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Stats      bool
}

// Offset returns the row offset for the filter's page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ParseFilter converts raw query parameters into a Filter.
//
// Parsing is deliberately permissive: malformed numeric or date input is
// absorbed by the defaults rather than rejected, and no error is ever
// raised. Empty strings count as unset. The stats flag is true only on the
// exact string "true".
func ParseFilter(params url.Values, defaultLimit int) Filter {
	f := Filter{
		Page:       parsePositiveInt(params.Get("page"), 1),
		Limit:      parsePositiveInt(params.Get("limit"), defaultLimit),
		UserID:     params.Get("userId"),
		EntityType: params.Get("entityType"),
		EntityID:   params.Get("entityId"),
		Action:     params.Get("action"),
		Stats:      params.Get("stats") == "true",
	}

	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}

	f.DateFrom = parseTimestamp(params.Get("dateFrom"))
	f.DateTo = parseTimestamp(params.Get("dateTo"))

	return f
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

// parseTimestamp accepts RFC 3339 or a bare date. Absent or unparseable
// input yields nil, never an invalid-date sentinel.
func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return &ts
	}
	return nil
}
