package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
)

// OpenAPIHandler serves the API description as JSON, converted from YAML
// once on first request.
type OpenAPIHandler struct {
	source []byte

	once sync.Once
	doc  []byte
	etag string
	err  error
}

// NewOpenAPIHandler creates a handler for the given YAML document.
func NewOpenAPIHandler(yamlDoc []byte) *OpenAPIHandler {
	return &OpenAPIHandler{source: yamlDoc}
}

func (h *OpenAPIHandler) convert() {
	h.doc, h.err = yaml.YAMLToJSON(h.source)
	if h.err == nil {
		sum := sha256.Sum256(h.doc)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// ServeHTTP writes the JSON document. Requests carrying a matching
// If-None-Match get 304.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.convert)

	if h.err != nil {
		slog.Error("failed to convert OpenAPI document to JSON", "error", h.err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load API description", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.doc); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
