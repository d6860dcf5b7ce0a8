package pptx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// PlaceholderType is the normalised kind of a placeholder.
type PlaceholderType string

const (
	TypeTitle       PlaceholderType = "title"
	TypeSubtitle    PlaceholderType = "subtitle"
	TypeBody        PlaceholderType = "body"
	TypeContent     PlaceholderType = "content"
	TypeImage       PlaceholderType = "image"
	TypeDate        PlaceholderType = "date"
	TypeFooter      PlaceholderType = "footer"
	TypeSlideNumber PlaceholderType = "slide_number"
	TypeUnknown     PlaceholderType = "unknown"
)

// normalisePlaceholderType maps the ST_PlaceholderType attribute value. An
// absent type means "obj", the generic content placeholder.
func normalisePlaceholderType(raw string) PlaceholderType {
	switch raw {
	case "title", "ctrTitle":
		return TypeTitle
	case "subTitle":
		return TypeSubtitle
	case "body":
		return TypeBody
	case "", "obj":
		return TypeContent
	case "pic", "clipArt":
		return TypeImage
	case "dt":
		return TypeDate
	case "ftr":
		return TypeFooter
	case "sldNum":
		return TypeSlideNumber
	default:
		return TypeUnknown
	}
}

// Cloneable reports whether slides instantiated from a layout receive a copy
// of placeholders of this type.
func (t PlaceholderType) Cloneable() bool {
	switch t {
	case TypeDate, TypeFooter, TypeSlideNumber:
		return false
	default:
		return true
	}
}

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

// Geometry is a shape's offset and extent in EMU.
type Geometry struct {
	X, Y, CX, CY int64
}

// Inches converts the geometry to inches, in X, Y, width, height order.
func (g Geometry) Inches() (float64, float64, float64, float64) {
	return float64(g.X) / EMUPerInch, float64(g.Y) / EMUPerInch,
		float64(g.CX) / EMUPerInch, float64(g.CY) / EMUPerInch
}

// Placeholder describes a placeholder shape on a layout.
type Placeholder struct {
	ShapeID  int
	Name     string
	Type     PlaceholderType
	RawType  string
	Idx      int
	FieldKey string
	Geometry Geometry
	// HasGeometry is false when the shape inherits its position from the
	// master and the master has no matching placeholder either.
	HasGeometry bool
}

// Master is a slide master and its layouts in template order.
type Master struct {
	Index   int
	Layouts []*Layout

	part string
	pres *Presentation
}

// Layout is a slide layout addressed by its (master, layout) coordinates.
type Layout struct {
	MasterIndex int
	Index       int
	Name        string

	part   string
	master *Master
	pres   *Presentation
}

func (p *Presentation) loadMasters() error {
	pres, err := p.xml(p.presPart)
	if err != nil {
		return err
	}
	presRels, err := p.relsFor(p.presPart)
	if err != nil {
		return err
	}

	for i, ref := range children(child(pres.Root(), "sldMasterIdLst"), "sldMasterId") {
		rel, ok := presRels.byID(relID(ref))
		if !ok {
			return fmt.Errorf("pptx: slide master %d has no relationship", i)
		}
		master := &Master{Index: i, part: resolveTarget(p.presPart, rel.Target), pres: p}
		if err := p.loadLayouts(master); err != nil {
			return err
		}
		p.masters = append(p.masters, master)
	}

	if ref := child(child(pres.Root(), "notesMasterIdLst"), "notesMasterId"); ref != nil {
		if rel, ok := presRels.byID(relID(ref)); ok {
			p.notesMaster = resolveTarget(p.presPart, rel.Target)
		}
	}
	return nil
}

func (p *Presentation) loadLayouts(master *Master) error {
	doc, err := p.xml(master.part)
	if err != nil {
		return err
	}
	rels, err := p.relsFor(master.part)
	if err != nil {
		return err
	}
	for i, ref := range children(child(doc.Root(), "sldLayoutIdLst"), "sldLayoutId") {
		rel, ok := rels.byID(relID(ref))
		if !ok {
			return fmt.Errorf("pptx: master %d layout %d has no relationship", master.Index, i)
		}
		layout := &Layout{
			MasterIndex: master.Index,
			Index:       i,
			part:        resolveTarget(master.part, rel.Target),
			master:      master,
			pres:        p,
		}
		layoutDoc, err := p.xml(layout.part)
		if err != nil {
			return err
		}
		layout.Name = attrValue(child(layoutDoc.Root(), "cSld"), "name")
		master.Layouts = append(master.Layouts, layout)
	}
	return nil
}

// Masters returns the slide masters in template order.
func (p *Presentation) Masters() []*Master {
	return p.masters
}

// LayoutAt resolves structural coordinates to a layout.
func (p *Presentation) LayoutAt(masterIndex, layoutIndex int) (*Layout, bool) {
	if masterIndex < 0 || masterIndex >= len(p.masters) {
		return nil, false
	}
	master := p.masters[masterIndex]
	if layoutIndex < 0 || layoutIndex >= len(master.Layouts) {
		return nil, false
	}
	return master.Layouts[layoutIndex], true
}

func (l *Layout) spTree() (*etree.Element, error) {
	doc, err := l.pres.xml(l.part)
	if err != nil {
		return nil, err
	}
	tree := descend(doc.Root(), "cSld", "spTree")
	if tree == nil {
		return nil, fmt.Errorf("pptx: layout %q has no shape tree", l.Name)
	}
	return tree, nil
}

// Placeholders lists the layout's placeholders in document order.
func (l *Layout) Placeholders() ([]Placeholder, error) {
	tree, err := l.spTree()
	if err != nil {
		return nil, err
	}
	var out []Placeholder
	for _, el := range tree.ChildElements() {
		ph, ok := readPlaceholder(el)
		if !ok {
			continue
		}
		if !ph.HasGeometry {
			if geom, ok := l.master.geometryFor(ph); ok {
				ph.Geometry, ph.HasGeometry = geom, true
			}
		}
		out = append(out, ph)
	}
	return out, nil
}

// FieldKeys returns the set of field keys carried by any shape on the
// layout, sorted.
func (l *Layout) FieldKeys() ([]string, error) {
	tree, err := l.spTree()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, el := range tree.ChildElements() {
		if key := fieldKeyOf(el); key != "" {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// SetFieldKey writes key into the metadata of the layout shape with the
// given id.
func (l *Layout) SetFieldKey(shapeID int, key string) error {
	tree, err := l.spTree()
	if err != nil {
		return err
	}
	for _, el := range tree.ChildElements() {
		props := nonVisualProps(el)
		if props == nil {
			continue
		}
		if id, _ := attrInt(props, "id"); int(id) == shapeID {
			props.CreateAttr("descr", key)
			l.pres.touch(l.part)
			return nil
		}
	}
	return fmt.Errorf("pptx: layout %q has no shape %d", l.Name, shapeID)
}

func (l *Layout) placeholderElements() ([]*etree.Element, error) {
	tree, err := l.spTree()
	if err != nil {
		return nil, err
	}
	var out []*etree.Element
	for _, el := range tree.ChildElements() {
		if placeholderElement(el) != nil {
			out = append(out, el)
		}
	}
	return out, nil
}

func (m *Master) geometryFor(ph Placeholder) (Geometry, bool) {
	doc, err := m.pres.xml(m.part)
	if err != nil {
		return Geometry{}, false
	}
	tree := descend(doc.Root(), "cSld", "spTree")
	if tree == nil {
		return Geometry{}, false
	}
	var byType *Placeholder
	for _, el := range tree.ChildElements() {
		candidate, ok := readPlaceholder(el)
		if !ok || !candidate.HasGeometry {
			continue
		}
		if ph.Idx > 0 && candidate.Idx == ph.Idx {
			return candidate.Geometry, true
		}
		if byType == nil && masterTypeMatches(ph.Type, candidate.Type) {
			c := candidate
			byType = &c
		}
	}
	if byType != nil {
		return byType.Geometry, true
	}
	return Geometry{}, false
}

// masterTypeMatches follows the inheritance rule where content placeholders
// take their position from the master's body placeholder.
func masterTypeMatches(layoutType, masterType PlaceholderType) bool {
	if layoutType == masterType {
		return true
	}
	switch layoutType {
	case TypeContent, TypeSubtitle, TypeImage:
		return masterType == TypeBody
	}
	return false
}

// nonVisualProps returns the cNvPr element of a shape, picture or graphic
// frame.
func nonVisualProps(el *etree.Element) *etree.Element {
	for _, wrapper := range []string{"nvSpPr", "nvPicPr", "nvGraphicFramePr", "nvGrpSpPr", "nvCxnSpPr"} {
		if props := descend(el, wrapper, "cNvPr"); props != nil {
			return props
		}
	}
	return nil
}

func nonVisualWrapper(el *etree.Element) *etree.Element {
	for _, wrapper := range []string{"nvSpPr", "nvPicPr", "nvGraphicFramePr"} {
		if w := child(el, wrapper); w != nil {
			return w
		}
	}
	return nil
}

func placeholderElement(el *etree.Element) *etree.Element {
	return descend(nonVisualWrapper(el), "nvPr", "ph")
}

func fieldKeyOf(el *etree.Element) string {
	return strings.TrimSpace(attrValue(nonVisualProps(el), "descr"))
}

func readPlaceholder(el *etree.Element) (Placeholder, bool) {
	ph := placeholderElement(el)
	if ph == nil {
		return Placeholder{}, false
	}
	props := nonVisualProps(el)
	id, _ := attrInt(props, "id")
	idx, _ := attrInt(ph, "idx")
	rawType := attrValue(ph, "type")

	out := Placeholder{
		ShapeID:  int(id),
		Name:     attrValue(props, "name"),
		Type:     normalisePlaceholderType(rawType),
		RawType:  rawType,
		Idx:      int(idx),
		FieldKey: fieldKeyOf(el),
	}
	out.Geometry, out.HasGeometry = readGeometry(el)
	return out, true
}

func readGeometry(el *etree.Element) (Geometry, bool) {
	xfrm := descend(el, "spPr", "xfrm")
	if xfrm == nil {
		xfrm = child(el, "xfrm")
	}
	off := child(xfrm, "off")
	ext := child(xfrm, "ext")
	if off == nil || ext == nil {
		return Geometry{}, false
	}
	x, _ := attrInt(off, "x")
	y, _ := attrInt(off, "y")
	cx, _ := attrInt(ext, "cx")
	cy, _ := attrInt(ext, "cy")
	return Geometry{X: x, Y: y, CX: cx, CY: cy}, true
}

func formatEMU(v int64) string {
	return strconv.FormatInt(v, 10)
}
