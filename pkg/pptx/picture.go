package pptx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var (
	// ErrPictureUnsupported reports a shape that cannot receive a picture.
	ErrPictureUnsupported = errors.New("pptx: shape does not accept pictures")
	// ErrImageFormat reports an image extension with no known content type.
	ErrImageFormat = errors.New("pptx: unsupported image format")
)

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"svg":  "image/svg+xml",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// addMedia stores image data once per distinct content and returns the
// media part name.
func (p *Presentation) addMedia(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrImageFormat, ext)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if part, ok := p.media[digest]; ok {
		return part, nil
	}
	part := p.uniquePartName("ppt/media/image%d." + ext)
	p.parts[part] = data
	p.types.ensureDefault(ext, contentType)
	p.media[digest] = part
	return part, nil
}

func (s *Slide) embedImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("pptx: read image: %w", err)
	}
	media, err := s.pres.addMedia(data, filepath.Ext(path))
	if err != nil {
		return "", err
	}
	rels, err := s.pres.relsFor(s.part)
	if err != nil {
		return "", err
	}
	rid := rels.add(relImage, relativeTarget(s.part, media))
	s.pres.touchRels(s.part)
	return rid, nil
}

// InsertPicture fills an image placeholder with the picture at path. The
// placeholder is replaced by a picture element that keeps its identity and
// placeholder binding, so the position is still inherited from the layout.
func (s *Slide) InsertPicture(shape *Shape, path string) (*Shape, error) {
	if shape == nil || shape.slide != s || shape.PlaceholderType() != TypeImage {
		return nil, ErrPictureUnsupported
	}
	rid, err := s.embedImage(path)
	if err != nil {
		return nil, err
	}

	props := nonVisualProps(shape.el)
	pic := newPictureElement(
		attrValue(props, "id"),
		attrValue(props, "name"),
		attrValue(props, "descr"),
		rid,
	)
	nvPr := descend(pic, "nvPicPr", "nvPr")
	nvPr.AddChild(placeholderElement(shape.el).Copy())
	if geom, ok := readGeometry(shape.el); ok {
		writeXfrm(child(pic, "spPr"), geom)
	}

	tree := shape.el.Parent()
	index := shape.el.Index()
	tree.RemoveChild(shape.el)
	tree.InsertChildAt(index, pic)
	s.pres.touch(s.part)
	return &Shape{slide: s, el: pic}, nil
}

// AddPicture places a free-floating picture at geom.
func (s *Slide) AddPicture(path string, geom Geometry) (*Shape, error) {
	tree := s.spTree()
	if tree == nil {
		return nil, fmt.Errorf("pptx: slide %d has no shape tree", s.Index)
	}
	rid, err := s.embedImage(path)
	if err != nil {
		return nil, err
	}
	id := s.nextShapeID()
	pic := newPictureElement(
		strconv.Itoa(id),
		fmt.Sprintf("Picture %d", id-1),
		"",
		rid,
	)
	spPr := child(pic, "spPr")
	writeXfrm(spPr, geom)
	geomEl := spPr.CreateElement("a:prstGeom")
	geomEl.CreateAttr("prst", "rect")
	geomEl.CreateElement("a:avLst")

	tree.AddChild(pic)
	s.pres.touch(s.part)
	return &Shape{slide: s, el: pic}, nil
}

func newPictureElement(id, name, descr, rid string) *etree.Element {
	pic := etree.NewElement("p:pic")
	nv := pic.CreateElement("p:nvPicPr")
	props := nv.CreateElement("p:cNvPr")
	props.CreateAttr("id", id)
	props.CreateAttr("name", name)
	if descr != "" {
		props.CreateAttr("descr", descr)
	}
	nv.CreateElement("p:cNvPicPr").CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	fill := pic.CreateElement("p:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", rid)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")
	pic.CreateElement("p:spPr")
	return pic
}

func writeXfrm(spPr *etree.Element, geom Geometry) {
	if old := child(spPr, "xfrm"); old != nil {
		spPr.RemoveChild(old)
	}
	xfrm := etree.NewElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", formatEMU(geom.X))
	off.CreateAttr("y", formatEMU(geom.Y))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", formatEMU(geom.CX))
	ext.CreateAttr("cy", formatEMU(geom.CY))
	spPr.InsertChildAt(0, xfrm)
}
