package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var embedded embed.FS

// defaultTemplates returns the embedded templates.
func defaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk ahead of the
// embedded defaults. A file there named like a default template replaces
// it wherever it is rendered or included. An empty dir is ignored.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

const templateExt = ".tpl"

// overlayFS serves files from top, falling back to base for names top
// does not have.
type overlayFS struct {
	top  fs.FS
	base fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}

// Engine renders templates from a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

// New constructs an Engine using the provided configuration options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	templates := defaultTemplates()
	if cfg.baseDir != "" {
		info, err := os.Stat(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("report: template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("report: template dir %s is not a directory", cfg.baseDir)
		}
		templates = overlayFS{top: os.DirFS(cfg.baseDir), base: templates}
	}

	set := pongo2.NewSet("deckgen", pongo2.NewFSLoader(templates))
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true

	engine := &Engine{
		templateSet: set,
		templates:   make(map[string]*pongo2.Template),
	}
	if err := engine.setGlobals(cfg.globalData); err != nil {
		return nil, fmt.Errorf("report: apply global data: %w", err)
	}
	return engine, nil
}

// RenderTemplate renders the named template, writing the result to every
// writer in out as well as returning it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("report: engine is nil")
	}
	templatePath := name
	if !strings.HasSuffix(templatePath, templateExt) {
		templatePath += templateExt
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, templatePath, data, out)
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("report: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("report: execute template %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// setGlobals seeds values visible to every template.
func (e *Engine) setGlobals(data map[string]any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("report: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

// convertToContext flattens data through JSON so templates see the same
// field names as the JSON artifacts.
func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return convertMap(map[string]any(v))
	case map[string]any:
		return convertMap(v)
	default:
		raw, err := jsonRoundTrip(v)
		if err != nil {
			return nil, err
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("report: template data must be an object, got %T", data)
		}
		return pongo2.Context(m), nil
	}
}

func convertMap(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch value.(type) {
		case nil, string, bool, int, int64, float64:
			out[key] = value
			continue
		}
		if reflect.ValueOf(value).Kind() == reflect.Func {
			out[key] = value
			continue
		}
		converted, err := jsonRoundTrip(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func jsonRoundTrip(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
