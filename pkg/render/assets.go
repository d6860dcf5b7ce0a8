package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-deckgen/pkg/deckir"
)

// Icon is one entry of the icon index.
type Icon struct {
	IconID         string   `json:"icon_id"`
	Filename       string   `json:"filename"`
	OriginalNumber int      `json:"original_number,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Synonyms       []string `json:"synonyms,omitempty"`
}

// IconIndex maps icon ids to rasterised files. Files live in a png
// directory next to the index itself.
type IconIndex struct {
	Version string `json:"version"`
	Icons   []Icon `json:"icons"`

	dir string
}

// LoadIconIndex reads an icons.json file.
func LoadIconIndex(path string) (*IconIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read icon index %s: %w", path, err)
	}
	return ParseIconIndex(data, filepath.Dir(path))
}

// ParseIconIndex decodes an icon index whose files are resolved under
// dir/png.
func ParseIconIndex(data []byte, dir string) (*IconIndex, error) {
	var index IconIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("render: decode icon index: %w", err)
	}
	index.dir = dir
	return &index, nil
}

// Path returns the file for id without checking that it exists.
func (x *IconIndex) Path(id string) (string, bool) {
	if x == nil {
		return "", false
	}
	for _, icon := range x.Icons {
		if icon.IconID == id && icon.Filename != "" {
			return filepath.Join(x.dir, "png", icon.Filename), true
		}
	}
	return "", false
}

// IconResolver resolves icon ids through an IconIndex.
type IconResolver struct {
	Index *IconIndex
}

func (r *IconResolver) Type() deckir.AssetType { return deckir.AssetIcon }

func (r *IconResolver) Resolve(id string) (string, error) {
	path, ok := r.Index.Path(id)
	if !ok {
		return "", fmt.Errorf("%w: unknown icon_id %q", ErrAssetMissing, id)
	}
	if !fileExists(path) {
		return "", fmt.Errorf("%w: icon %q at %s", ErrAssetMissing, id, path)
	}
	return path, nil
}

// ImageResolver finds image files: absolute paths as given, then relative
// to Root, then under Root/assets.
type ImageResolver struct {
	Root string
}

func (r *ImageResolver) Type() deckir.AssetType { return deckir.AssetImage }

func (r *ImageResolver) Resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty image id", ErrAssetMissing)
	}
	if filepath.IsAbs(id) {
		if fileExists(id) {
			return id, nil
		}
		return "", fmt.Errorf("%w: %s", ErrAssetMissing, id)
	}
	for _, candidate := range []string{
		filepath.Join(r.Root, id),
		filepath.Join(r.Root, "assets", id),
	} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrAssetMissing, id)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
