package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/internal/prompt"
	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/orchestrator"
	"github.com/goliatone/go-deckgen/pkg/testsupport"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvProjectRoot, config.EnvPublishDriver, config.EnvS3Bucket, config.EnvS3PathStyle, config.EnvReportTemplates} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, driver prompt.Driver, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.logger = zap.NewNop()
	a.prompt = driver
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(testsupport.Context())
	return stdout.String(), err
}

func overflowDeck(t *testing.T, project testsupport.Project) string {
	t.Helper()
	bullets := make([]string, 9)
	for i := range bullets {
		bullets[i] = fmt.Sprintf(`"Point %d"`, i+1)
	}
	deck := strings.Replace(testsupport.SampleDeckJSON,
		`["Revenue up", "Churn down", "Two launches shipped"]`,
		"["+strings.Join(bullets, ", ")+"]", 1)
	path := filepath.Join(project.Root, "inputs", "overflow.json")
	testsupport.MustWriteFile(t, path, []byte(deck))
	return path
}

func TestValidateCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)

	out, err := execute(t, nil, "validate", "--project-root", project.Root)
	require.NoError(t, err)
	assert.Contains(t, out, "Drift: catalog matches template")
	assert.Contains(t, out, "Template/catalog validation passed.")
}

func TestValidateCommandFailsOnDrift(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)
	drifted := strings.Replace(testsupport.DefaultCatalogJSON, `"layout_index": 1,`, `"layout_index": 42,`, 1)
	testsupport.MustWriteFile(t, project.CatalogPath, []byte(drifted))

	out, err := execute(t, nil, "validate", "--project-root", project.Root)
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrDrift)
	assert.Contains(t, out, "Drift: 1 finding")
	assert.Contains(t, out, "one_content_light missing in template")
	assert.NotContains(t, out, "validation passed")
}

func TestRenderCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)

	_, err := execute(t, nil, "render", "--project-root", project.Root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "deckir" not set`)

	out, err := execute(t, nil, "render", "--project-root", project.Root, "--deckir", project.DeckPath, "--run-id", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Run cli (render): ok")
	assert.Contains(t, out, "Rendered 3 slides")
	assert.Contains(t, out, "Run directory: "+filepath.Join(project.Root, "runs", "cli"))
	assert.FileExists(t, filepath.Join(project.Root, "runs", "cli", orchestrator.DeckFile))
}

func TestSmokeCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)

	out, err := execute(t, nil, "smoke", "--project-root", project.Root, "--run-id", "s")
	require.NoError(t, err)
	assert.Contains(t, out, "Run s (smoke): ok")
	assert.Contains(t, out, "Preflight: no violations")
	assert.FileExists(t, filepath.Join(project.Root, "runs", "s", orchestrator.DeckIRRemediatedFile))
}

func TestSmokeCommandConfirm(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)
	deck := overflowDeck(t, project)

	var info bytes.Buffer
	declined := &prompt.Static{Answer: false, Out: &info}
	out, err := execute(t, declined, "smoke", "--project-root", project.Root, "--deckir", deck, "--run-id", "no", "--confirm")
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrAborted)
	assert.Equal(t, []string{"Render anyway?"}, declined.Asked)
	assert.Contains(t, info.String(), "1 blocking violation(s) remain after remediation on slides [s1]")
	assert.Contains(t, out, "Run no (smoke): aborted")
	assert.NoFileExists(t, filepath.Join(project.Root, "runs", "no", orchestrator.DeckFile))

	accepted := &prompt.Static{Answer: true}
	_, err = execute(t, accepted, "smoke", "--project-root", project.Root, "--deckir", deck, "--run-id", "yes", "--confirm")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(project.Root, "runs", "yes", orchestrator.DeckFile))

	// Without --confirm the gate is never consulted.
	silent := &prompt.Static{Answer: false}
	_, err = execute(t, silent, "smoke", "--project-root", project.Root, "--deckir", deck, "--run-id", "auto")
	require.NoError(t, err)
	assert.Empty(t, silent.Asked)
}

func TestInspectCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)

	out, err := execute(t, nil, "inspect", "--project-root", project.Root)
	require.NoError(t, err)
	assert.Contains(t, out, "Layout 1: One Content - Light")
	assert.Contains(t, out, "key=ph_body")

	out, err = execute(t, nil, "inspect", "--project-root", project.Root, "--json")
	require.NoError(t, err)
	var info struct {
		Masters []struct {
			Layouts []struct {
				Name string `json:"name"`
			} `json:"layouts"`
		} `json:"masters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Len(t, info.Masters, 1)
	assert.Equal(t, "One Content - Light", info.Masters[0].Layouts[1].Name)
}

func TestInspectCommandUsesReportTemplates(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)
	dir := filepath.Join(project.Root, "reports")
	testsupport.MustWriteFile(t, filepath.Join(dir, "inspect.tpl"),
		[]byte("{% autoescape off %}{{ masters|length }} master(s) under {{ project_root }}{% endautoescape %}"))
	t.Setenv(config.EnvReportTemplates, dir)

	out, err := execute(t, nil, "inspect", "--project-root", project.Root)
	require.NoError(t, err)
	assert.Equal(t, "1 master(s) under "+project.Root, strings.TrimSpace(out))
}

func TestCatalogGenerateCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)

	out, err := execute(t, nil, "catalog", "generate", "--project-root", project.Root, "--output", "-")
	require.NoError(t, err)
	printed, err := catalog.Parse([]byte(out), "stdout")
	require.NoError(t, err)
	_, ok := printed.Lookup("one_content_light")
	assert.True(t, ok)

	target := filepath.Join(project.Root, "generated", "catalog.yaml")
	out, err = execute(t, nil, "catalog", "generate", "--project-root", project.Root, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote ")
	written, err := catalog.Load(target)
	require.NoError(t, err)
	assert.Equal(t, printed.LayoutIDs(), written.LayoutIDs())
}

func TestAnnotateCommand(t *testing.T) {
	clearEnv(t)
	project := testsupport.WriteProject(t)
	stripped := testsupport.BuildTemplate(testsupport.TemplateSpec{Layouts: testsupport.StripFieldKeys(testsupport.DefaultLayouts())})
	testsupport.MustWriteFile(t, project.TemplatePath, stripped)

	out, err := execute(t, nil, "annotate", "--project-root", project.Root, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "-> ph_title")
	assert.Contains(t, out, "Dry run: template not modified.")
	current, err := os.ReadFile(project.TemplatePath)
	require.NoError(t, err)
	assert.Equal(t, stripped, current)

	out, err = execute(t, nil, "annotate", "--project-root", project.Root)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to ")
	backups, err := filepath.Glob(filepath.Join(filepath.Dir(project.TemplatePath), "template.*.bak.pptx"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	out, err = execute(t, nil, "validate", "--project-root", project.Root)
	require.NoError(t, err, out)
}
