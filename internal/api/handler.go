package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/discuss-config/internal/config"
	"github.com/eugenenazirov/discuss-config/internal/render"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves a configuration document resolved once at startup.
type Handler struct {
	document   config.Document
	redact     bool
	resolvedAt time.Time

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithRedaction controls whether the database password is hidden in responses.
func WithRedaction(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.redact = enabled
	}
}

// NewHandler constructs a Handler serving doc. Secrets are redacted unless
// WithRedaction(false) is given.
func NewHandler(doc config.Document, opts ...HandlerOption) *Handler {
	h := &Handler{
		document: doc,
		redact:   true,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.resolvedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	format := render.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := render.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "use one of yaml, json, flat")
			return
		}
		format = parsed
	}

	if format == render.FormatJSON {
		if err := render.CheckJSON(h.document); err != nil {
			writeError(w, http.StatusInternalServerError, "Unencodable value", err.Error(), "request ?format=yaml or ?format=flat")
			return
		}
		resp := configResponse{
			Config:     h.view(),
			ResolvedAt: h.resolvedAt,
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, h.document, format, render.Redacted(h.redact)); err != nil {
		writeInternalError(w, err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if format == render.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleGetConfigKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	entry, err := render.LookupJSON(h.document, key, render.Redacted(h.redact))
	if err != nil {
		switch {
		case errors.Is(err, render.ErrUnknownKey):
			writeError(w, http.StatusNotFound, "Unknown key", err.Error())
			return
		case errors.Is(err, render.ErrInvalidUTF8):
			writeError(w, http.StatusInternalServerError, "Unencodable value", err.Error(), "request /api/config?format=flat")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) view() config.Document {
	doc := h.document
	if h.redact && doc.Database.Password != "" {
		doc.Database.Password = render.RedactedValue
	}
	return doc
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	Config     config.Document `json:"config"`
	ResolvedAt time.Time       `json:"resolvedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
