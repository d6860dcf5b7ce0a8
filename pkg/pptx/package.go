package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/beevik/etree"
)

// ErrNotPresentation reports a package without a presentation part.
var ErrNotPresentation = errors.New("pptx: package has no presentation part")

// Presentation is an in-memory presentation package. It is not safe for
// concurrent use; each render owns its own instance.
type Presentation struct {
	parts map[string][]byte
	order []string

	docs  map[string]*etree.Document
	rels  map[string]*relationships
	dirty map[string]bool

	types    *contentTypes
	presPart string

	masters     []*Master
	slides      []*Slide
	notesMaster string
	media       map[string]string
}

// Open reads the presentation package at path.
func Open(path string) (*Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pptx: read %s: %w", path, err)
	}
	p, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("pptx: open %s: %w", path, err)
	}
	return p, nil
}

// OpenBytes parses a presentation package held in memory.
func OpenBytes(data []byte) (*Presentation, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pptx: read zip: %w", err)
	}

	p := &Presentation{
		parts: make(map[string][]byte, len(zr.File)),
		docs:  make(map[string]*etree.Document),
		rels:  make(map[string]*relationships),
		dirty: make(map[string]bool),
		media: make(map[string]string),
	}
	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("pptx: open part %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("pptx: read part %s: %w", file.Name, err)
		}
		p.parts[file.Name] = content
		p.order = append(p.order, file.Name)
	}

	raw, ok := p.parts[contentTypesPart]
	if !ok {
		return nil, fmt.Errorf("pptx: missing %s", contentTypesPart)
	}
	if p.types, err = parseContentTypes(raw); err != nil {
		return nil, fmt.Errorf("pptx: parse %s: %w", contentTypesPart, err)
	}

	rootRels, err := p.relsFor("")
	if err != nil {
		return nil, err
	}
	office, ok := rootRels.firstOfType(relOfficeDocument)
	if !ok {
		return nil, ErrNotPresentation
	}
	p.presPart = resolveTarget("", office.Target)
	if _, ok := p.parts[p.presPart]; !ok {
		return nil, ErrNotPresentation
	}

	if err := p.loadMasters(); err != nil {
		return nil, err
	}
	if err := p.loadSlides(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Presentation) xml(part string) (*etree.Document, error) {
	if doc, ok := p.docs[part]; ok {
		return doc, nil
	}
	raw, ok := p.parts[part]
	if !ok {
		return nil, fmt.Errorf("pptx: part %s not found", part)
	}
	doc, err := parseXML(raw)
	if err != nil {
		return nil, fmt.Errorf("pptx: parse %s: %w", part, err)
	}
	p.docs[part] = doc
	return doc, nil
}

// relsFor returns the relationships of part; "" addresses the package root.
func (p *Presentation) relsFor(part string) (*relationships, error) {
	name := rootRelsPart
	if part != "" {
		name = relsPartName(part)
	}
	if rels, ok := p.rels[name]; ok {
		return rels, nil
	}
	rels := &relationships{}
	if raw, ok := p.parts[name]; ok {
		parsed, err := parseRelationships(raw)
		if err != nil {
			return nil, fmt.Errorf("pptx: parse %s: %w", name, err)
		}
		rels = parsed
	}
	p.rels[name] = rels
	return rels, nil
}

func (p *Presentation) touch(part string) {
	p.dirty[part] = true
}

func (p *Presentation) touchRels(part string) {
	p.dirty[relsPartName(part)] = true
}

func (p *Presentation) putXML(part string, doc *etree.Document, contentType string) {
	p.docs[part] = doc
	p.parts[part] = nil
	p.touch(part)
	if contentType != "" {
		p.types.setOverride(part, contentType)
	}
}

func (p *Presentation) uniquePartName(pattern string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf(pattern, n)
		if _, exists := p.parts[name]; !exists {
			return name
		}
	}
}

// Bytes serialises the package. Only parts reachable from the package
// relationships are written.
func (p *Presentation) Bytes() ([]byte, error) {
	for part := range p.dirty {
		if doc, ok := p.docs[part]; ok {
			data, err := doc.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("pptx: serialise %s: %w", part, err)
			}
			p.parts[part] = data
			continue
		}
		if rels, ok := p.rels[part]; ok {
			data, err := rels.marshal()
			if err != nil {
				return nil, fmt.Errorf("pptx: serialise %s: %w", part, err)
			}
			p.parts[part] = data
		}
	}
	p.dirty = make(map[string]bool)

	keep, err := p.reachable()
	if err != nil {
		return nil, err
	}
	p.types.prune(func(name string) bool { return keep[name] })
	types, err := p.types.marshal()
	if err != nil {
		return nil, fmt.Errorf("pptx: serialise %s: %w", contentTypesPart, err)
	}

	names := p.writeOrder(keep)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := writeZipPart(zw, contentTypesPart, types); err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := writeZipPart(zw, name, p.parts[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pptx: close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the package to path atomically: the bytes land in a temporary
// file next to path which is then renamed over it.
func (p *Presentation) Save(path string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pptx: create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pptx-*.tmp")
	if err != nil {
		return fmt.Errorf("pptx: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("pptx: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("pptx: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pptx: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("pptx: rename output: %w", err)
	}
	return nil
}

// reachable walks the relationship graph from the package root.
func (p *Presentation) reachable() (map[string]bool, error) {
	keep := map[string]bool{rootRelsPart: true}
	queue := []string{""}
	for len(queue) > 0 {
		part := queue[0]
		queue = queue[1:]
		rels, err := p.relsFor(part)
		if err != nil {
			return nil, err
		}
		if part != "" && len(rels.items) > 0 {
			keep[relsPartName(part)] = true
		}
		for _, rel := range rels.items {
			if rel.external() {
				continue
			}
			target := resolveTarget(part, rel.Target)
			if keep[target] {
				continue
			}
			if _, ok := p.parts[target]; !ok {
				continue
			}
			keep[target] = true
			queue = append(queue, target)
		}
	}
	return keep, nil
}

func (p *Presentation) writeOrder(keep map[string]bool) []string {
	seen := make(map[string]bool, len(keep))
	var names []string
	for _, name := range p.order {
		if keep[name] && !seen[name] && name != contentTypesPart {
			names = append(names, name)
			seen[name] = true
		}
	}
	var added []string
	for name := range keep {
		if !seen[name] && name != contentTypesPart {
			if _, ok := p.parts[name]; ok {
				added = append(added, name)
			}
		}
	}
	sort.Strings(added)
	return append(names, added...)
}

func writeZipPart(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("pptx: create part %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("pptx: write part %s: %w", name, err)
	}
	return nil
}
