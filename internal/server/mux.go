// Package server serves the album backend's HTTP contract from any Gateway. With the
// in-memory fixture behind it, it is a stand-in backend for development and for testing
// the HTTP gateway end to end.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/metrics"
	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/telemetry"
)

// ContextKey is used for request-scoped values.
type ContextKey string

const ContextKeyCorrelationID ContextKey = "correlationId"

// Mux routes the album API to a Gateway.
type Mux struct {
	mux     *http.ServeMux
	gw      gateway.Gateway
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewMux returns a handler serving the album API from gw.
func NewMux(gw gateway.Gateway, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mux{
		mux:     http.NewServeMux(),
		gw:      gw,
		metrics: metrics.NewMetrics(),
		tracer:  telemetry.Tracer("albumfixtured"),
		logger:  logger,
	}

	m.mux.HandleFunc("GET /healthz", m.handleHealthz)
	m.mux.Handle("GET /metrics", promhttp.Handler())

	// GET patterns also answer HEAD, which is what availability probes send.
	m.handle("GET /{$}", m.handleRoot)
	m.handle("GET /api/media", m.handleListMedia)
	m.handle("GET /api/search/tags", m.handleSearch)
	m.handle("POST /api/media/{id}/like", m.handleLike)
	m.handle("POST /api/media/{id}/favorite", m.handleFavorite)
	m.handle("DELETE /api/media/{id}", m.handleDelete)
	m.handle("POST /api/media/{id}/tags/{tagId}", m.handleAddTag)
	m.handle("DELETE /api/media/{id}/tags/{tagId}", m.handleRemoveTag)
	m.handle("GET /api/tags", m.handleListTags)
	m.handle("POST /api/tags", m.handleCreateTag)
	m.handle("GET /api/folders", m.handleRootFolders)
	m.handle("GET /api/folders/{id}/subfolders", m.handleSubfolders)
	m.handle("GET /api/folders/{id}/media", m.handleFolderMedia)
	m.handle("GET /api/folders/{id}/breadcrumb", m.handleBreadcrumb)
	m.handle("POST /api/scan", m.handleScan)

	return m.mux
}

// apiHandler returns the response value or an error mapped to a status code.
type apiHandler func(ctx context.Context, r *http.Request) (any, error)

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handle wraps h with correlation ids, tracing, metrics and request logging.
func (m *Mux) handle(pattern string, h apiHandler) {
	m.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID)
		ctx, span := m.tracer.Start(ctx, pattern, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(attribute.String("correlation_id", correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		v, err := h(ctx, r.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.MessageOf(err))
			writeError(rec, err)
		} else {
			writeJSON(rec, http.StatusOK, v)
		}

		status := strconv.Itoa(rec.status)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.Pattern, status).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.Pattern, status).Observe(time.Since(start).Seconds())
		m.logRequest(r, rec.status, time.Since(start), correlationID, err)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers in the backend's {"detail": ...} shape.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.ALBUM_VALIDATION:
		status = http.StatusBadRequest
	case apperrors.ALBUM_NOT_FOUND:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"detail": apperrors.MessageOf(err)})
}

func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string, err error) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("correlation_id", correlationID),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		m.logger.LogAttrs(r.Context(), slog.LevelError, "request completed with error", attrs...)
		return
	}
	m.logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
}

func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (m *Mux) handleRoot(ctx context.Context, r *http.Request) (any, error) {
	return model.Ack{Message: "Album API"}, nil
}

func (m *Mux) handleListMedia(ctx context.Context, r *http.Request) (any, error) {
	sort := r.URL.Query().Get("sort_by")
	if sort == "" {
		sort = string(model.SortRecent)
	}
	mode, err := model.ParseSortingMode(sort)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	return m.gw.ListMedia(ctx, mode)
}

func (m *Mux) handleSearch(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.SearchMediaByTags(ctx, r.URL.Query()["tag_ids"])
}

func (m *Mux) handleLike(ctx context.Context, r *http.Request) (any, error) {
	liked, err := formBool(r, "liked")
	if err != nil {
		return nil, err
	}
	return m.gw.SetLiked(ctx, r.PathValue("id"), liked)
}

func (m *Mux) handleFavorite(ctx context.Context, r *http.Request) (any, error) {
	favorited, err := formBool(r, "favorited")
	if err != nil {
		return nil, err
	}
	return m.gw.SetFavorited(ctx, r.PathValue("id"), favorited)
}

func (m *Mux) handleDelete(ctx context.Context, r *http.Request) (any, error) {
	if err := m.gw.DeleteMedia(ctx, r.PathValue("id")); err != nil {
		return nil, err
	}
	return model.Ack{Message: "Media deleted successfully"}, nil
}

func (m *Mux) handleAddTag(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.AddTag(ctx, r.PathValue("id"), r.PathValue("tagId"))
}

func (m *Mux) handleRemoveTag(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.RemoveTag(ctx, r.PathValue("id"), r.PathValue("tagId"))
}

func (m *Mux) handleListTags(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ListTags(ctx)
}

func (m *Mux) handleCreateTag(ctx context.Context, r *http.Request) (any, error) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apperrors.Validation("invalid JSON body: %v", err)
	}
	return m.gw.CreateTag(ctx, body.Name)
}

func (m *Mux) handleRootFolders(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ListRootFolders(ctx)
}

func (m *Mux) handleSubfolders(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ListSubfolders(ctx, r.PathValue("id"))
}

func (m *Mux) handleFolderMedia(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ListFolderMedia(ctx, r.PathValue("id"))
}

func (m *Mux) handleBreadcrumb(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ListBreadcrumb(ctx, r.PathValue("id"))
}

func (m *Mux) handleScan(ctx context.Context, r *http.Request) (any, error) {
	return m.gw.ScanDirectory(ctx, r.FormValue("path"))
}

func formBool(r *http.Request, field string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return false, apperrors.Validation("form field %q is required", field)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Validation("form field %q must be a boolean", field)
	}
	return v, nil
}
