package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
)

func writeRunDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestKey(t *testing.T) {
	cases := map[string]struct {
		prefix string
		want   string
	}{
		"no prefix":      {prefix: "", want: "run-1/render_map.json"},
		"plain prefix":   {prefix: "decks", want: "decks/run-1/render_map.json"},
		"slashed prefix": {prefix: "/decks/", want: "decks/run-1/render_map.json"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := Key(tc.prefix, "run-1", "render_map.json"); got != tc.want {
				t.Fatalf("Key = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("deck_v1.pptx"); !strings.Contains(got, "presentationml") {
		t.Fatalf("pptx content type = %q", got)
	}
	if got := ContentType("RUN_LOG.JSONL"); got != "application/x-ndjson" {
		t.Fatalf("jsonl content type = %q", got)
	}
	if got := ContentType("blob.bin"); got != "application/octet-stream" {
		t.Fatalf("fallback content type = %q", got)
	}
}

func TestSanitizeKey(t *testing.T) {
	for _, key := range []string{"", "   ", "/etc/passwd", "../escape", "a/../../b"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", key)
		}
	}
	got, err := sanitizeKey("decks//run-1/./summary.txt")
	if err != nil {
		t.Fatalf("sanitizeKey: %v", err)
	}
	if got != "decks/run-1/summary.txt" {
		t.Fatalf("sanitizeKey = %q", got)
	}
}

func TestFSStorePublish(t *testing.T) {
	dir := writeRunDir(t, map[string]string{
		"render_map.json": `{"entries":{}}`,
		"summary.txt":     "Run ok\n",
	})
	store, err := NewFSStore(filepath.Join(t.TempDir(), "published"))
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	objects, err := Publish(context.Background(), store, "decks", "run-1", dir, []string{"render_map.json", "summary.txt"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var keys []string
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	if diff := cmp.Diff([]string{"decks/run-1/render_map.json", "decks/run-1/summary.txt"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if objects[1].Size != int64(len("Run ok\n")) {
		t.Fatalf("summary size = %d", objects[1].Size)
	}

	data, err := os.ReadFile(filepath.Join(store.Root(), "decks", "run-1", "summary.txt"))
	if err != nil {
		t.Fatalf("read published: %v", err)
	}
	if string(data) != "Run ok\n" {
		t.Fatalf("published content = %q", data)
	}

	// Reruns replace existing objects.
	if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte("Run again\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, err := Publish(context.Background(), store, "decks", "run-1", dir, []string{"summary.txt"}); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(store.Root(), "decks", "run-1", "summary.txt"))
	if string(data) != "Run again\n" {
		t.Fatalf("rewritten content = %q", data)
	}
}

func TestPublishStopsOnMissingFile(t *testing.T) {
	dir := writeRunDir(t, map[string]string{"a.json": "{}"})
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	objects, err := Publish(context.Background(), store, "", "run-1", dir, []string{"a.json", "missing.json", "a.json"})
	if err == nil {
		t.Fatalf("expected error for missing artifact")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object before failure, got %d", len(objects))
	}
}

func TestPublishValidatesArguments(t *testing.T) {
	if _, err := Publish(context.Background(), nil, "", "run", t.TempDir(), nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
	store, _ := NewFSStore(t.TempDir())
	if _, err := Publish(context.Background(), store, "", " ", t.TempDir(), nil); err == nil {
		t.Fatalf("expected error for blank run id")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Publish(ctx, store, "", "run", t.TempDir(), []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "ftp"}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	store, err := Open(context.Background(), Config{Driver: DriverFilesystem, Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %q", store.Driver())
	}
	if _, err := Open(context.Background(), Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
	if (Config{}).Enabled() {
		t.Fatalf("zero config should be disabled")
	}
}

// mockS3 is a fake S3 endpoint that only understands PutObject.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string]mockObject
}

type mockObject struct {
	body        []byte
	contentType string
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
		if decoded, ok := decodeChunked(body); ok {
			body = decoded
		}
	}
	m.mu.Lock()
	m.objects[strings.TrimPrefix(req.URL.Path, "/")] = mockObject{body: body, contentType: req.Header.Get("Content-Type")}
	m.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

// decodeChunked strips aws-chunked framing: <hex>[;sig]\r\n<data>\r\n ... 0\r\n<trailers>.
func decodeChunked(b []byte) ([]byte, bool) {
	reader := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, false
		}
		sizeHex := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, false
		}
		if size == 0 {
			return out.Bytes(), true
		}
		if _, err := io.CopyN(&out, reader, size); err != nil {
			return nil, false
		}
		if _, err := reader.ReadString('\n'); err != nil {
			return nil, false
		}
	}
}

func TestS3StorePublish(t *testing.T) {
	rt := &mockS3{objects: map[string]mockObject{}}
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "decks",
		Region:          "eu-west-1",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	dir := writeRunDir(t, map[string]string{"validation_report.json": `{"violations":[]}`})
	objects, err := Publish(context.Background(), store, "archive", "run-7", dir, []string{"validation_report.json"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected one object, got %d", len(objects))
	}
	if objects[0].Location != "s3://decks/archive/run-7/validation_report.json" {
		t.Fatalf("location = %q", objects[0].Location)
	}

	stored, ok := rt.objects["decks/archive/run-7/validation_report.json"]
	if !ok {
		t.Fatalf("object not uploaded; have %v", rt.objects)
	}
	if string(stored.body) != `{"violations":[]}` {
		t.Fatalf("uploaded body = %q", stored.body)
	}
	if stored.contentType != "application/json" {
		t.Fatalf("uploaded content type = %q", stored.contentType)
	}
}
