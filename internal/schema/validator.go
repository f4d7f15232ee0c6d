// Package schema validates backend response bodies before they are decoded.
// A body that parses as JSON but has the wrong shape is reported as a protocol failure
// instead of silently decoding into zero values.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/lanalbum/albumclient/internal/metrics"
	"github.com/xeipuuv/gojsonschema"
)

// Kind names one response shape of the backend API.
type Kind string

const (
	MediaList  Kind = "media.list"
	MediaItem  Kind = "media.item"
	TagList    Kind = "tag.list"
	TagItem    Kind = "tag.item"
	FolderList Kind = "folder.list"
	ScanResult Kind = "scan.result"
	Ack        Kind = "ack"
)

const (
	tagSchema = `{"type":"object","required":["id","name"],"properties":{"id":{"type":"string","minLength":1},"name":{"type":"string"}}}`

	mediaSchema = `{"type":"object","required":["id","type","path"],"properties":{` +
		`"id":{"type":"string","minLength":1},` +
		`"type":{"type":"string","enum":["image","video"]},` +
		`"path":{"type":"string"},` +
		`"title":{"type":["string","null"]},` +
		`"created_at":{"type":"string"},` +
		`"liked":{"type":"boolean"},` +
		`"favorited":{"type":"boolean"},` +
		`"like_count":{"type":"integer","minimum":0},` +
		`"size":{"type":"integer"},` +
		`"tags":{"type":["array","null"],"items":` + tagSchema + `}}}`

	folderSchema = `{"type":"object","required":["id","name"],"properties":{` +
		`"id":{"type":"string","minLength":1},` +
		`"name":{"type":"string"},` +
		`"path":{"type":"string"},` +
		`"created_at":{"type":"string"},` +
		`"parent_id":{"type":["string","null"]},` +
		`"subfolders":{"type":["array","null"],"items":{"type":"string"}},` +
		`"media_items":{"type":["array","null"],"items":{"type":"string"}}}}`

	scanSchema = `{"type":"object","required":["message"],"properties":{` +
		`"message":{"type":"string"},` +
		`"media_count":{"type":"integer"},` +
		`"folder_count":{"type":"integer"}}}`

	ackSchema = `{"type":"object","required":["message"],"properties":{"message":{"type":"string"}}}`
)

func listOf(item string) string {
	return `{"type":"array","items":` + item + `}`
}

// Validator checks response bodies against compiled JSON schemas.
type Validator struct {
	schemas map[Kind]*gojsonschema.Schema
	metrics *metrics.Metrics
}

// NewValidator compiles the schemas for every response kind.
func NewValidator() (*Validator, error) {
	v := &Validator{
		schemas: make(map[Kind]*gojsonschema.Schema),
		metrics: metrics.NewMetrics(),
	}

	for kind, src := range map[Kind]string{
		MediaList:  listOf(mediaSchema),
		MediaItem:  mediaSchema,
		TagList:    listOf(tagSchema),
		TagItem:    tagSchema,
		FolderList: listOf(folderSchema),
		ScanResult: scanSchema,
		Ack:        ackSchema,
	} {
		if err := v.loadSchema(kind, src); err != nil {
			return nil, fmt.Errorf("failed to load schemas: %w", err)
		}
	}
	return v, nil
}

// loadSchema compiles a single schema.
func (v *Validator) loadSchema(kind Kind, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", kind, err)
	}
	v.schemas[kind] = schema
	return nil
}

// Validate checks body against the schema registered for kind.
func (v *Validator) Validate(kind Kind, body []byte) (err error) {
	start := time.Now()
	defer func() {
		status := "valid"
		if err != nil {
			status = "invalid"
		}
		v.metrics.SchemaValidationTotal.WithLabelValues(string(kind), status).Inc()
		v.metrics.SchemaValidationDuration.WithLabelValues(string(kind), status).Observe(time.Since(start).Seconds())
	}()

	schema, exists := v.schemas[kind]
	if !exists {
		return fmt.Errorf("schema not found for %s", kind)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%s validation failed: %s", kind, strings.Join(errs, "; "))
	}
	return nil
}
