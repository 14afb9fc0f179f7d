package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// queryValue returns def when the parameter is absent or blank, and a
// validation error naming the field when parse rejects it.
func queryValue[T any](r *http.Request, key string, def T, kind string, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be %s", key, kind).
			WithDetails(map[string]any{"field": key})
	}
	return v, nil
}

// ParseQueryInt reads an integer parameter that must fall within [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	v, err := queryValue(r, key, def, "a number", strconv.Atoi)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, lo, hi).
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return v, nil
}

// ParseQueryBool reads a flag such as ?unread=true.
func ParseQueryBool(r *http.Request, key string, def bool) (bool, error) {
	return queryValue(r, key, def, "a boolean", strconv.ParseBool)
}
