package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// DefaultCatalogJSON describes the MVP layouts of DefaultLayouts. The
// constraints are the ones catalog generation derives from their geometry.
const DefaultCatalogJSON = `{
  "version": "1.0",
  "template_path": "assets/template/template.pptx",
  "generated_from": "template.pptx",
  "layouts": [
    {
      "layout_id": "one_content_light",
      "template_layout_name": "One Content - Light",
      "master_index": 0,
      "layout_index": 1,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0},
        {"field_key": "ph_body", "type": "content", "required": true, "placeholder_idx": 1}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 7,
        "max_words_per_bullet": 18,
        "max_total_body_chars": 700,
        "body_line_budget": 13,
        "avg_chars_per_line": 85
      }
    },
    {
      "layout_id": "two_content_light",
      "template_layout_name": "Two Content - Light",
      "master_index": 0,
      "layout_index": 2,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0},
        {"field_key": "ph_body_left", "type": "content", "required": true, "placeholder_idx": 1},
        {"field_key": "ph_body_right", "type": "content", "required": true, "placeholder_idx": 2}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 5,
        "max_words_per_bullet": 12,
        "max_total_body_chars": 400,
        "body_line_budget": 13,
        "avg_chars_per_line": 42
      }
    },
    {
      "layout_id": "header_only_light",
      "template_layout_name": "Header Only - Light",
      "master_index": 0,
      "layout_index": 3,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 0,
        "max_words_per_bullet": 15,
        "max_total_body_chars": 0,
        "body_line_budget": 12,
        "avg_chars_per_line": 50
      }
    },
    {
      "layout_id": "content_image_light",
      "template_layout_name": "One Content With Image - Light",
      "master_index": 0,
      "layout_index": 4,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0},
        {"field_key": "ph_body", "type": "body", "required": true, "placeholder_idx": 1},
        {"field_key": "ph_image", "type": "image", "required": false, "placeholder_idx": 2}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 7,
        "max_words_per_bullet": 18,
        "max_total_body_chars": 546,
        "body_line_budget": 13,
        "avg_chars_per_line": 42
      }
    },
    {
      "layout_id": "three_content_light",
      "template_layout_name": "Three content - Light",
      "master_index": 0,
      "layout_index": 5,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0},
        {"field_key": "ph_col1", "type": "content", "required": true, "placeholder_idx": 1},
        {"field_key": "ph_col2", "type": "content", "required": true, "placeholder_idx": 2},
        {"field_key": "ph_col3", "type": "content", "required": true, "placeholder_idx": 3}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 4,
        "max_words_per_bullet": 10,
        "max_total_body_chars": 300,
        "body_line_budget": 12,
        "avg_chars_per_line": 30
      }
    },
    {
      "layout_id": "statement_light",
      "template_layout_name": "Statement - Light",
      "master_index": 0,
      "layout_index": 6,
      "mvp": true,
      "fields": [
        {"field_key": "ph_title", "type": "title", "required": true, "placeholder_idx": 0},
        {"field_key": "ph_body", "type": "body", "required": true, "placeholder_idx": 1}
      ],
      "constraints": {
        "max_title_chars": 100,
        "max_bullets": 1,
        "max_words_per_bullet": 30,
        "max_total_body_chars": 200,
        "body_line_budget": 4,
        "avg_chars_per_line": 78
      }
    }
  ]
}
`

// IconsJSON is an icon index with a single entry.
const IconsJSON = `{
  "version": "1.0",
  "icons": [
    {"icon_id": "icon_001", "filename": "icon_001.png", "original_number": 1, "tags": [], "synonyms": []}
  ]
}
`

// SampleDeckJSON is a small deck bound to the default catalog.
const SampleDeckJSON = `{
  "deck_id": "deck_sample",
  "run_id": "run_sample",
  "template_id": "template_default",
  "title": "Quarterly Review",
  "global_constraints": {},
  "slides": [
    {
      "slide_id": "s1",
      "layout_id": "one_content_light",
      "fields": {
        "ph_title": "Highlights",
        "ph_body": ["Revenue up", "Churn down", "Two launches shipped"]
      },
      "speaker_notes": "Open with the headline numbers.",
      "asset_refs": []
    },
    {
      "slide_id": "s2",
      "layout_id": "content_image_light",
      "fields": {
        "ph_title": "Product",
        "ph_body": "The new editor is live for every customer."
      },
      "speaker_notes": {"owner": "pm", "minutes": 3},
      "asset_refs": [
        {"asset_type": "icon", "asset_id": "icon_001", "target_field_key": "ph_image"}
      ]
    },
    {
      "slide_id": "s3",
      "layout_id": "header_only_light",
      "fields": {"ph_title": "Questions"},
      "speaker_notes": "",
      "asset_refs": []
    }
  ]
}
`

// PNG returns a small solid PNG image.
func PNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 0x1f, G: 0x6f, B: 0xb4, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Project holds the paths of a project tree written by WriteProject.
type Project struct {
	Root         string
	TemplatePath string
	CatalogPath  string
	IconsPath    string
	DeckPath     string
}

// WriteProject lays out a complete project under a temporary directory:
// template, catalog, icon index with its PNG, an image asset and a sample
// deck in inputs/.
func WriteProject(t *testing.T) Project {
	t.Helper()

	root := t.TempDir()
	p := Project{
		Root:         root,
		TemplatePath: filepath.Join(root, "assets", "template", "template.pptx"),
		CatalogPath:  filepath.Join(root, "assets", "layout", "layout_catalog.json"),
		IconsPath:    filepath.Join(root, "assets", "icons", "icons.json"),
		DeckPath:     filepath.Join(root, "inputs", "sample_deck.json"),
	}
	MustWriteFile(t, p.TemplatePath, DefaultTemplate())
	MustWriteFile(t, p.CatalogPath, []byte(DefaultCatalogJSON))
	MustWriteFile(t, p.IconsPath, []byte(IconsJSON))
	MustWriteFile(t, filepath.Join(root, "assets", "icons", "png", "icon_001.png"), PNG())
	MustWriteFile(t, filepath.Join(root, "assets", "images", "photo.png"), PNG())
	MustWriteFile(t, p.DeckPath, []byte(SampleDeckJSON))
	return p
}

// MustWriteFile writes data to path, creating parent directories.
func MustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
