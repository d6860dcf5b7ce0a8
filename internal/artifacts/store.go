// Package artifacts publishes the files of a run directory to a blob store.
// Two backends exist: the local filesystem and S3-compatible object storage.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Driver names a blob store backend.
type Driver string

const (
	DriverNone       Driver = ""
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("artifacts: unknown driver")

// Object describes a stored artifact.
type Object struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	Location    string `json:"location"`
}

// Store is the minimal write surface needed to publish run artifacts.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)
}

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	Prefix string

	// Filesystem backend.
	Root string

	// S3 backend.
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether publishing is configured.
func (c Config) Enabled() bool {
	return c.Driver != DriverNone
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem:
		return NewFSStore(cfg.Root)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Publish uploads the named files from dir under <prefix>/<runID>/<name>.
// Files are uploaded in the given order; the first failure stops the upload.
func Publish(ctx context.Context, store Store, prefix, runID, dir string, names []string) ([]Object, error) {
	if store == nil {
		return nil, errors.New("artifacts: store is nil")
	}
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("artifacts: run id is required")
	}

	objects := make([]Object, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return objects, err
		}
		obj, err := publishFile(ctx, store, Key(prefix, runID, name), filepath.Join(dir, name))
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func publishFile(ctx context.Context, store Store, key, file string) (Object, error) {
	f, err := os.Open(file)
	if err != nil {
		return Object{}, fmt.Errorf("artifacts: open %s: %w", file, err)
	}
	defer f.Close()

	obj, err := store.Put(ctx, key, f, ContentType(file))
	if err != nil {
		return Object{}, fmt.Errorf("artifacts: put %s (%s): %w", key, store.Driver(), err)
	}
	return obj, nil
}

// Key joins the object key for an artifact.
func Key(prefix, runID, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(prefix, runID, name)
}

var contentTypes = map[string]string{
	".json":  "application/json",
	".jsonl": "application/x-ndjson",
	".pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".prom":  "text/plain; version=0.0.4",
	".txt":   "text/plain; charset=utf-8",
}

// ContentType guesses the media type of a run artifact from its extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
