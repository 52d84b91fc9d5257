// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the caller identity, path ids, list filters and JSON bodies.

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

	"saldo/internal/core"
	"saldo/internal/services"
)

// HeaderUserID carries the authenticated user, set by the identity provider in front of the API.
const HeaderUserID = "X-User-ID"

const maxBodyBytes = 1 << 20

var (
	errMissingIdentity = errors.New("missing " + HeaderUserID + " header")
	errBadIdentity     = errors.New("malformed " + HeaderUserID + " header")
)

// ParseUserID reads the requesting user from the identity header.
func ParseUserID(r *http.Request) (core.UserID, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" {
		return 0, errMissingIdentity
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadIdentity
	}
	return core.UserID(id), nil
}

// ParsePathID reads a positive integer path value. Anything else reads as a
// missing row, so malformed and unknown ids answer the same way.
func ParsePathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// ParseListFilter extracts the optional account, year and month filters.
func ParseListFilter(query url.Values) (services.ListFilter, error) {
	bad := map[string]string{}
	positive := func(name string) int64 {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			bad[name] = "must be a positive integer"
			return 0
		}
		return n
	}

	f := services.ListFilter{
		AccountID: core.AccountID(positive("account")),
		Year:      int(positive("year")),
		Month:     int(positive("month")),
	}
	if len(bad) > 0 {
		return services.ListFilter{}, &core.ValidationError{Fields: bad}
	}
	return f, nil
}

// decodeError is a body that could not be read as the expected JSON document.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "invalid JSON body: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// DecodeJSON reads one JSON document into dst. Amount and date values that do
// not parse become field errors on moneyField and "date"; every other problem
// is a *decodeError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, moneyField string) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount) && moneyField != "":
			return core.FieldError(moneyField, err)
		case errors.Is(err, core.ErrInvalidDate):
			return core.FieldError("date", err)
		case errors.Is(err, io.EOF):
			return &decodeError{err: errors.New("empty body")}
		}
		return &decodeError{err: err}
	}
	if dec.More() {
		return &decodeError{err: fmt.Errorf("unexpected data after the JSON document")}
	}
	return nil
}
