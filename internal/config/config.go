// Package config resolves the project layout used by the deckgen commands:
// the template, layout catalog, icon index, inputs and run directories,
// plus optional publishing settings. Values come from defaults, an optional
// deckgen.yaml at the project root, then DECKGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-deckgen/internal/artifacts"
	"gopkg.in/yaml.v3"
)

// FileName is the optional project configuration file.
const FileName = "deckgen.yaml"

// Environment variables read by Load.
const (
	EnvProjectRoot     = "DECKGEN_PROJECT_ROOT"
	EnvPublishDriver   = "DECKGEN_PUBLISH_DRIVER"
	EnvS3Bucket        = "DECKGEN_S3_BUCKET"
	EnvS3Region        = "DECKGEN_S3_REGION"
	EnvS3Endpoint      = "DECKGEN_S3_ENDPOINT"
	EnvS3PathStyle     = "DECKGEN_S3_PATH_STYLE"
	EnvReportTemplates = "DECKGEN_REPORT_TEMPLATES"
)

var (
	// ErrMissingFile reports a required input file that does not exist.
	ErrMissingFile = errors.New("config: missing file")
	// ErrNoProjectRoot is returned when discovery reaches the filesystem root.
	ErrNoProjectRoot = errors.New("config: project root not found")
)

// Paths lists project-relative locations. Absolute values are kept as given.
type Paths struct {
	Assets        string `yaml:"assets"`
	Template      string `yaml:"template"`
	LayoutCatalog string `yaml:"layout_catalog"`
	Icons         string `yaml:"icons"`
	Inputs        string `yaml:"inputs"`
	SampleDeck    string `yaml:"sample_deck"`
	Runs          string `yaml:"runs"`
	// ReportTemplates holds .tpl files overriding the built-in summaries.
	// Unset by default.
	ReportTemplates string `yaml:"report_templates"`
}

// PublishConfig configures artifact publishing after a run.
type PublishConfig struct {
	Driver    string `yaml:"driver"` // "", fs, s3
	Prefix    string `yaml:"prefix"`
	Root      string `yaml:"root"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Config is the resolved project configuration. All paths are absolute.
type Config struct {
	ProjectRoot string `yaml:"-"`

	Paths          Paths         `yaml:"paths"`
	SanitizeMarkup bool          `yaml:"sanitize_markup"`
	Publish        PublishConfig `yaml:"publish"`

	AssetsDir         string `yaml:"-"`
	TemplatePath      string `yaml:"-"`
	LayoutCatalogPath string `yaml:"-"`
	IconsPath         string `yaml:"-"`
	InputsDir         string `yaml:"-"`
	SampleDeckPath    string `yaml:"-"`
	RunsDir           string `yaml:"-"`
	// ReportTemplatesDir is empty when no override is configured.
	ReportTemplatesDir string `yaml:"-"`
}

// DefaultPaths returns the conventional project layout.
func DefaultPaths() Paths {
	return Paths{
		Assets:        "assets",
		Template:      filepath.Join("assets", "template", "template.pptx"),
		LayoutCatalog: filepath.Join("assets", "layout", "layout_catalog.json"),
		Icons:         filepath.Join("assets", "icons", "icons.json"),
		Inputs:        "inputs",
		SampleDeck:    filepath.Join("inputs", "sample_deck.json"),
		Runs:          "runs",
	}
}

// Load resolves the configuration for projectRoot. An empty root falls back
// to DECKGEN_PROJECT_ROOT and then to discovery from the working directory.
func Load(projectRoot string) (*Config, error) {
	root, err := resolveRoot(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &Config{ProjectRoot: root, Paths: DefaultPaths()}

	data, err := os.ReadFile(filepath.Join(root, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", FileName, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config: read %s: %w", FileName, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.resolve()
	return cfg, nil
}

func resolveRoot(projectRoot string) (string, error) {
	if projectRoot == "" {
		projectRoot = os.Getenv(EnvProjectRoot)
	}
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: working directory: %w", err)
		}
		return Discover(wd)
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("config: project root %q: %w", projectRoot, err)
	}
	return abs, nil
}

// Discover walks up from start until it finds a directory containing
// deckgen.yaml or the default layout catalog.
func Discover(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("config: discover from %q: %w", start, err)
	}
	markers := []string{FileName, DefaultPaths().LayoutCatalog}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched up from %s)", ErrNoProjectRoot, start)
		}
		dir = parent
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvReportTemplates); v != "" {
		c.Paths.ReportTemplates = v
	}
	if v := os.Getenv(EnvPublishDriver); v != "" {
		c.Publish.Driver = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Publish.Bucket = v
	}
	if v := os.Getenv(EnvS3Region); v != "" {
		c.Publish.Region = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		c.Publish.Endpoint = v
	}
	if v := os.Getenv(EnvS3PathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvS3PathStyle, v, err)
		}
		c.Publish.PathStyle = b
	}
	c.Publish.Driver = strings.ToLower(strings.TrimSpace(c.Publish.Driver))
	return nil
}

func (c *Config) resolve() {
	defaults := DefaultPaths()
	pick := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			value = fallback
		}
		if filepath.IsAbs(value) {
			return filepath.Clean(value)
		}
		return filepath.Join(c.ProjectRoot, value)
	}
	c.AssetsDir = pick(c.Paths.Assets, defaults.Assets)
	c.TemplatePath = pick(c.Paths.Template, defaults.Template)
	c.LayoutCatalogPath = pick(c.Paths.LayoutCatalog, defaults.LayoutCatalog)
	c.IconsPath = pick(c.Paths.Icons, defaults.Icons)
	c.InputsDir = pick(c.Paths.Inputs, defaults.Inputs)
	c.SampleDeckPath = pick(c.Paths.SampleDeck, defaults.SampleDeck)
	c.RunsDir = pick(c.Paths.Runs, defaults.Runs)
	if strings.TrimSpace(c.Paths.ReportTemplates) != "" {
		c.ReportTemplatesDir = pick(c.Paths.ReportTemplates, "")
	}
	if c.Publish.Driver == string(artifacts.DriverFilesystem) && c.Publish.Root != "" && !filepath.IsAbs(c.Publish.Root) {
		c.Publish.Root = filepath.Join(c.ProjectRoot, c.Publish.Root)
	}
}

// Input names a required project file.
type Input string

const (
	InputTemplate Input = "template"
	InputCatalog  Input = "layout catalog"
	InputIcons    Input = "icon index"
)

// Path returns the resolved location of input.
func (c *Config) Path(input Input) string {
	switch input {
	case InputTemplate:
		return c.TemplatePath
	case InputCatalog:
		return c.LayoutCatalogPath
	case InputIcons:
		return c.IconsPath
	default:
		return ""
	}
}

// Require checks that every listed input exists. The first missing one is
// reported as ErrMissingFile with its label and path.
func (c *Config) Require(inputs ...Input) error {
	for _, input := range inputs {
		path := c.Path(input)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w: %s not found at %s", ErrMissingFile, input, path)
		}
	}
	return nil
}

// RunDir returns the artifact directory for runID.
func (c *Config) RunDir(runID string) string {
	return filepath.Join(c.RunsDir, runID)
}

// Artifacts maps the publish settings onto an artifact store configuration.
// The filesystem driver defaults to <root>/published.
func (c *Config) Artifacts() artifacts.Config {
	root := c.Publish.Root
	if root == "" && c.Publish.Driver == string(artifacts.DriverFilesystem) {
		root = filepath.Join(c.ProjectRoot, "published")
	}
	return artifacts.Config{
		Driver:    artifacts.Driver(c.Publish.Driver),
		Prefix:    c.Publish.Prefix,
		Root:      root,
		Bucket:    c.Publish.Bucket,
		Region:    c.Publish.Region,
		Endpoint:  c.Publish.Endpoint,
		PathStyle: c.Publish.PathStyle,
	}
}
