package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"financeflow/internal/core"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
// Domain validation errors raised by field decoders keep their classification.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidArgument) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
	}
	return nil
}

// parseRange reads the inclusive from/to query parameters; both are required.
func parseRange(q url.Values) (core.DateRange, error) {
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		return core.DateRange{}, core.Invalidf("from and to query parameters are required")
	}
	return core.ParseDateRange(from, to)
}

// parseOptionalInt returns def when key is absent.
func parseOptionalInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.Invalidf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// pathID returns the numeric {id} route variable.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalidf("id must be a positive integer")
	}
	return id, nil
}

// pathVar returns a sanitized route variable.
func pathVar(r *http.Request, name string) string {
	return sanitizeInput(mux.Vars(r)[name])
}
