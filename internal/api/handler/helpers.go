package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/listing"
)

const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into dst. It writes a 400 INVALID_JSON
// response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return false
	}
	return true
}

// pathUUID parses the {id} URL parameter. It writes a 400 INVALID_ID
// response and returns false on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}

// listParams reads page, limit, sort, order, field and q from the query string.
func listParams(r *http.Request) listing.Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return listing.Params{
		Page:        page,
		Limit:       limit,
		SortField:   q.Get("sort"),
		SortOrder:   listing.ParseOrder(q.Get("order")),
		SearchField: q.Get("field"),
		SearchValue: strings.TrimSpace(q.Get("q")),
	}
}

// csvQuery splits every value of key on commas and drops blanks, so both
// ?role=a,b and ?role=a&role=b are accepted.
func csvQuery(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}
