package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lanalbum/albumclient/internal/config"
	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/metrics"
	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/schema"
	"github.com/lanalbum/albumclient/internal/telemetry"
)

const (
	bodySnippetLimit = 500
	maxResponseBytes = 32 << 20
)

// HTTPGateway talks to the album backend over HTTP. It performs no retries.
type HTTPGateway struct {
	base                string
	hc                  *http.Client
	availabilityTimeout time.Duration
	token               string
	validator           *schema.Validator
	metrics             *metrics.Metrics
	tracer              trace.Tracer
	logger              *slog.Logger
	now                 func() time.Time
}

// HTTPOption configures an HTTPGateway.
type HTTPOption func(*HTTPGateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(g *HTTPGateway) { g.hc = hc }
}

// WithRequestTimeout bounds every call made through the client.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.hc.Timeout = d
		}
	}
}

// WithAvailabilityTimeout bounds CheckAvailability.
func WithAvailabilityTimeout(d time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.availabilityTimeout = d
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) HTTPOption {
	return func(g *HTTPGateway) { g.token = token }
}

func WithLogger(l *slog.Logger) HTTPOption {
	return func(g *HTTPGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewHTTP creates a gateway for the backend at baseURL. A base URL without a scheme is
// treated as plain http.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTPGateway, error) {
	base := config.NormalizeBaseURL(baseURL)
	if base == "" {
		return nil, apperrors.Validation("api base url must not be empty")
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}
	g := &HTTPGateway{
		base:                base,
		hc:                  &http.Client{Transport: transport, Timeout: 30 * time.Second},
		availabilityTimeout: 3 * time.Second,
		validator:           validator,
		metrics:             metrics.NewMetrics(),
		tracer:              telemetry.Tracer("github.com/lanalbum/albumclient/internal/gateway"),
		logger:              slog.Default(),
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// BaseURL returns the normalised backend base URL.
func (g *HTTPGateway) BaseURL() string { return g.base }

func (g *HTTPGateway) ListMedia(ctx context.Context, sort model.SortingMode) ([]model.MediaItem, error) {
	if !sort.Valid() {
		return nil, apperrors.Validation("unknown sorting mode %q", sort)
	}
	var items []model.MediaItem
	err := g.do(ctx, call{
		op:     "list_media",
		method: http.MethodGet,
		path:   "/api/media",
		query:  url.Values{"sort_by": {string(sort)}},
		kind:   schema.MediaList,
	}, &items)
	return items, err
}

func (g *HTTPGateway) SearchMediaByTags(ctx context.Context, tagIDs []string) ([]model.MediaItem, error) {
	if len(tagIDs) == 0 {
		return nil, apperrors.Validation("at least one tag id is required")
	}
	var items []model.MediaItem
	err := g.do(ctx, call{
		op:     "search_media",
		method: http.MethodGet,
		path:   "/api/search/tags",
		query:  url.Values{"tag_ids": tagIDs},
		kind:   schema.MediaList,
	}, &items)
	return items, err
}

func (g *HTTPGateway) SetLiked(ctx context.Context, id string, liked bool) (model.MediaItem, error) {
	var item model.MediaItem
	err := g.do(ctx, call{
		op:     "set_liked",
		method: http.MethodPost,
		path:   "/api/media/" + EncodePathParam(id) + "/like",
		form:   url.Values{"liked": {strconv.FormatBool(liked)}},
		kind:   schema.MediaItem,
	}, &item)
	return item, err
}

func (g *HTTPGateway) SetFavorited(ctx context.Context, id string, favorited bool) (model.MediaItem, error) {
	var item model.MediaItem
	err := g.do(ctx, call{
		op:     "set_favorited",
		method: http.MethodPost,
		path:   "/api/media/" + EncodePathParam(id) + "/favorite",
		form:   url.Values{"favorited": {strconv.FormatBool(favorited)}},
		kind:   schema.MediaItem,
	}, &item)
	return item, err
}

func (g *HTTPGateway) DeleteMedia(ctx context.Context, id string) error {
	return g.do(ctx, call{
		op:     "delete_media",
		method: http.MethodDelete,
		path:   "/api/media/" + EncodePathParam(id),
		kind:   schema.Ack,
	}, nil)
}

func (g *HTTPGateway) AddTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	var ack model.Ack
	err := g.do(ctx, call{
		op:     "add_tag",
		method: http.MethodPost,
		path:   "/api/media/" + EncodePathParam(mediaID) + "/tags/" + EncodePathParam(tagID),
		kind:   schema.Ack,
	}, &ack)
	return ack, err
}

func (g *HTTPGateway) RemoveTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	var ack model.Ack
	err := g.do(ctx, call{
		op:     "remove_tag",
		method: http.MethodDelete,
		path:   "/api/media/" + EncodePathParam(mediaID) + "/tags/" + EncodePathParam(tagID),
		kind:   schema.Ack,
	}, &ack)
	return ack, err
}

func (g *HTTPGateway) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := g.do(ctx, call{
		op:     "list_tags",
		method: http.MethodGet,
		path:   "/api/tags",
		kind:   schema.TagList,
	}, &tags)
	return tags, err
}

func (g *HTTPGateway) CreateTag(ctx context.Context, name string) (model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Tag{}, apperrors.Validation("tag name must not be blank")
	}
	var tag model.Tag
	err := g.do(ctx, call{
		op:     "create_tag",
		method: http.MethodPost,
		path:   "/api/tags",
		json:   map[string]string{"name": name},
		kind:   schema.TagItem,
	}, &tag)
	return tag, err
}

func (g *HTTPGateway) ListRootFolders(ctx context.Context) ([]model.Folder, error) {
	var folders []model.Folder
	err := g.do(ctx, call{
		op:     "list_root_folders",
		method: http.MethodGet,
		path:   "/api/folders",
		kind:   schema.FolderList,
	}, &folders)
	return folders, err
}

func (g *HTTPGateway) ListSubfolders(ctx context.Context, folderID string) ([]model.Folder, error) {
	var folders []model.Folder
	err := g.do(ctx, call{
		op:     "list_subfolders",
		method: http.MethodGet,
		path:   "/api/folders/" + EncodePathParam(folderID) + "/subfolders",
		kind:   schema.FolderList,
	}, &folders)
	return folders, err
}

func (g *HTTPGateway) ListFolderMedia(ctx context.Context, folderID string) ([]model.MediaItem, error) {
	var items []model.MediaItem
	err := g.do(ctx, call{
		op:     "list_folder_media",
		method: http.MethodGet,
		path:   "/api/folders/" + EncodePathParam(folderID) + "/media",
		kind:   schema.MediaList,
	}, &items)
	return items, err
}

func (g *HTTPGateway) ListBreadcrumb(ctx context.Context, folderID string) ([]model.Folder, error) {
	var folders []model.Folder
	err := g.do(ctx, call{
		op:     "list_breadcrumb",
		method: http.MethodGet,
		path:   "/api/folders/" + EncodePathParam(folderID) + "/breadcrumb",
		kind:   schema.FolderList,
	}, &folders)
	return folders, err
}

func (g *HTTPGateway) ScanDirectory(ctx context.Context, path string) (model.ScanResult, error) {
	if strings.TrimSpace(path) == "" {
		return model.ScanResult{}, apperrors.Validation("scan path must not be blank")
	}
	var res model.ScanResult
	err := g.do(ctx, call{
		op:     "scan_directory",
		method: http.MethodPost,
		path:   "/api/scan",
		form:   url.Values{"path": {path}},
		kind:   schema.ScanResult,
	}, &res)
	return res, err
}

// CheckAvailability sends HEAD / and reports whether a 2xx came back in time.
func (g *HTTPGateway) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, g.availabilityTimeout)
	defer cancel()

	start := time.Now()
	status := "error"
	defer func() {
		g.metrics.GatewayRequestTotal.WithLabelValues("check_availability", status).Inc()
		g.metrics.GatewayRequestDuration.WithLabelValues("check_availability", status).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.base+"/", nil)
	if err != nil {
		g.logger.Debug("availability probe failed", "error", err)
		return false
	}
	resp, err := g.hc.Do(req)
	if err != nil {
		g.logger.Debug("availability probe failed", "base_url", g.base, "error", err)
		return false
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string // already encoded
	query  url.Values
	form   url.Values
	json   any
	kind   schema.Kind
}

func (g *HTTPGateway) do(ctx context.Context, c call, out any) (err error) {
	if err := checkToken(g.token, g.now()); err != nil {
		return err
	}

	ctx, span := g.tracer.Start(ctx, "gateway."+c.op, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	status := "error"
	defer func() {
		g.metrics.GatewayRequestTotal.WithLabelValues(c.op, status).Inc()
		g.metrics.GatewayRequestDuration.WithLabelValues(c.op, status).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.MessageOf(err))
		}
		span.End()
	}()

	u := g.base + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case c.form != nil:
		body = strings.NewReader(c.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case c.json != nil:
		b, err := json.Marshal(c.json)
		if err != nil {
			return apperrors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, c.method, u, body)
	if err != nil {
		return apperrors.Wrap(err, "build request")
	}
	correlationID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-Id", correlationID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	span.SetAttributes(
		attribute.String("http.request.method", c.method),
		attribute.String("url.path", c.path),
		attribute.String("correlation_id", correlationID),
	)

	resp, err := g.hc.Do(req)
	if err != nil {
		return apperrors.Wrap(err, fmt.Sprintf("%s %s: network error", c.method, c.path))
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.Error{
			Code:       apperrors.ALBUM_GATEWAY,
			Message:    errorMessage(resp.Status, raw),
			Body:       snippet(raw),
			HTTPStatus: resp.StatusCode,
		}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		g.logger.Error("backend returned a non-JSON response",
			"operation", c.op,
			"content_type", ct,
			"body", snippet(raw),
			"correlation_id", correlationID,
		)
		if ct == "" {
			ct = "unknown type"
		}
		return &apperrors.Error{
			Code:       apperrors.ALBUM_GATEWAY,
			Message:    fmt.Sprintf("backend returned a non-JSON response (%s)", ct),
			Body:       snippet(raw),
			HTTPStatus: resp.StatusCode,
		}
	}

	if c.kind != "" {
		if err := g.validator.Validate(c.kind, raw); err != nil {
			return &apperrors.Error{
				Code:       apperrors.ALBUM_GATEWAY,
				Message:    "unexpected response shape",
				Cause:      err,
				Body:       snippet(raw),
				HTTPStatus: resp.StatusCode,
			}
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(err, "decode response")
	}
	return nil
}

// errorMessage picks the backend's own explanation out of an error body.
func errorMessage(status string, raw []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Detail) > 0 {
			var s string
			if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
				return s
			}
			return string(payload.Detail)
		}
	}
	return "server returned " + status
}

func snippet(raw []byte) string {
	if len(raw) > bodySnippetLimit {
		raw = raw[:bodySnippetLimit]
	}
	return strings.ToValidUTF8(string(raw), "")
}
