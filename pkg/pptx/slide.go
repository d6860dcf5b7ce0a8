package pptx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Slide is a slide added to the presentation by AddSlide.
type Slide struct {
	// Index is the zero-based position of the slide in the deck.
	Index int

	layout *Layout
	part   string
	pres   *Presentation
}

// Shape is a handle to a top-level shape of a slide.
type Shape struct {
	slide *Slide
	el    *etree.Element
}

// SlideCount returns the number of slides currently in the deck.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

func (p *Presentation) loadSlides() error {
	pres, err := p.xml(p.presPart)
	if err != nil {
		return err
	}
	presRels, err := p.relsFor(p.presPart)
	if err != nil {
		return err
	}
	for i, ref := range children(child(pres.Root(), "sldIdLst"), "sldId") {
		rel, ok := presRels.byID(relID(ref))
		if !ok {
			return fmt.Errorf("pptx: slide %d has no relationship", i)
		}
		slide := &Slide{
			Index: i,
			part:  resolveTarget(p.presPart, rel.Target),
			pres:  p,
		}
		slideRels, err := p.relsFor(slide.part)
		if err != nil {
			return err
		}
		if layoutRel, ok := slideRels.firstOfType(relSlideLayout); ok {
			slide.layout = p.layoutByPart(resolveTarget(slide.part, layoutRel.Target))
		}
		p.slides = append(p.slides, slide)
	}
	return nil
}

// Slides returns the slides in deck order.
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

func (p *Presentation) layoutByPart(part string) *Layout {
	for _, master := range p.masters {
		for _, layout := range master.Layouts {
			if layout.part == part {
				return layout
			}
		}
	}
	return nil
}

// RemoveSlides drops every slide from the deck, leaving the masters and
// layouts as a clean canvas. Slide parts become unreachable and are not
// written on save.
func (p *Presentation) RemoveSlides() error {
	pres, err := p.xml(p.presPart)
	if err != nil {
		return err
	}
	presRels, err := p.relsFor(p.presPart)
	if err != nil {
		return err
	}
	list := child(pres.Root(), "sldIdLst")
	for _, ref := range children(list, "sldId") {
		presRels.remove(relID(ref))
		list.RemoveChild(ref)
	}
	for _, slide := range p.slides {
		if err := p.dropSlideParts(slide.part); err != nil {
			return err
		}
	}
	p.slides = nil
	p.touch(p.presPart)
	p.touchRels(p.presPart)
	return nil
}

// dropSlideParts forgets a removed slide and its notes slide so their part
// names can be reused.
func (p *Presentation) dropSlideParts(part string) error {
	rels, err := p.relsFor(part)
	if err != nil {
		return err
	}
	if notes, ok := rels.firstOfType(relNotesSlide); ok {
		p.forgetPart(resolveTarget(part, notes.Target))
	}
	p.forgetPart(part)
	return nil
}

func (p *Presentation) forgetPart(part string) {
	rels := relsPartName(part)
	for _, name := range []string{part, rels} {
		delete(p.parts, name)
		delete(p.docs, name)
		delete(p.rels, name)
		delete(p.dirty, name)
	}
}

// AddSlide appends a slide instantiated from layout. Cloneable placeholders
// are copied without their field-key metadata, as presentation editors do.
func (p *Presentation) AddSlide(layout *Layout) (*Slide, error) {
	if layout == nil || layout.pres != p {
		return nil, errors.New("pptx: layout does not belong to this presentation")
	}
	placeholders, err := layout.placeholderElements()
	if err != nil {
		return nil, err
	}

	part := p.uniquePartName("ppt/slides/slide%d.xml")
	root := newPresentationRoot("p:sld")
	tree := root.CreateElement("p:cSld").CreateElement("p:spTree")
	writeGroupProps(tree)

	nextID := 2
	for _, src := range placeholders {
		ph := placeholderElement(src)
		if !normalisePlaceholderType(attrValue(ph, "type")).Cloneable() {
			continue
		}
		clonePlaceholder(tree, src, ph, nextID)
		nextID++
	}
	root.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")

	p.putXML(part, newXMLDocument(root), ctSlide)
	rels, err := p.relsFor(part)
	if err != nil {
		return nil, err
	}
	rels.add(relSlideLayout, relativeTarget(part, layout.part))
	p.touchRels(part)

	if err := p.appendSlideID(part); err != nil {
		return nil, err
	}

	slide := &Slide{
		Index:  len(p.slides),
		layout: layout,
		part:   part,
		pres:   p,
	}
	p.slides = append(p.slides, slide)
	return slide, nil
}

func (p *Presentation) appendSlideID(slidePart string) error {
	pres, err := p.xml(p.presPart)
	if err != nil {
		return err
	}
	presRels, err := p.relsFor(p.presPart)
	if err != nil {
		return err
	}
	root := pres.Root()
	list := child(root, "sldIdLst")
	if list == nil {
		list = etree.NewElement(qualified(root, "sldIdLst"))
		insertAfter(root, list, "sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst")
	}

	nextID := int64(255)
	for _, ref := range children(list, "sldId") {
		if id, ok := attrInt(ref, "id"); ok && id > nextID {
			nextID = id
		}
	}
	rid := presRels.add(relSlide, relativeTarget(p.presPart, slidePart))
	ref := list.CreateElement(qualified(root, "sldId"))
	ref.CreateAttr("id", strconv.FormatInt(nextID+1, 10))
	ref.CreateAttr("r:id", rid)

	p.touch(p.presPart)
	p.touchRels(p.presPart)
	return nil
}

func writeGroupProps(tree *etree.Element) {
	nv := tree.CreateElement("p:nvGrpSpPr")
	props := nv.CreateElement("p:cNvPr")
	props.CreateAttr("id", "1")
	props.CreateAttr("name", "")
	nv.CreateElement("p:cNvGrpSpPr")
	nv.CreateElement("p:nvPr")
	tree.CreateElement("p:grpSpPr")
}

func clonePlaceholder(tree, src, ph *etree.Element, id int) {
	sp := tree.CreateElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	props := nv.CreateElement("p:cNvPr")
	props.CreateAttr("id", strconv.Itoa(id))
	name := attrValue(nonVisualProps(src), "name")
	if name == "" {
		name = fmt.Sprintf("Placeholder %d", id-1)
	}
	props.CreateAttr("name", name)
	nv.CreateElement("p:cNvSpPr").CreateElement("a:spLocks").CreateAttr("noGrp", "1")
	phCopy := nv.CreateElement("p:nvPr").CreateElement("p:ph")
	for _, attr := range ph.Attr {
		if attr.Space != "" {
			continue
		}
		phCopy.CreateAttr(attr.Key, attr.Value)
	}
	sp.CreateElement("p:spPr")
}

func (s *Slide) spTree() *etree.Element {
	doc, err := s.pres.xml(s.part)
	if err != nil {
		return nil
	}
	return descend(doc.Root(), "cSld", "spTree")
}

// Layout returns the layout the slide was instantiated from.
func (s *Slide) Layout() *Layout {
	return s.layout
}

// Shapes lists the slide's top-level shapes in document order.
func (s *Slide) Shapes() []*Shape {
	tree := s.spTree()
	if tree == nil {
		return nil
	}
	var out []*Shape
	for _, el := range tree.ChildElements() {
		switch el.Tag {
		case "sp", "pic", "graphicFrame":
			out = append(out, &Shape{slide: s, el: el})
		}
	}
	return out
}

func (s *Slide) nextShapeID() int {
	max := int64(1)
	tree := s.spTree()
	if tree == nil {
		return int(max) + 1
	}
	for _, el := range tree.ChildElements() {
		if id, ok := attrInt(nonVisualProps(el), "id"); ok && id > max {
			max = id
		}
	}
	return int(max) + 1
}

// ID returns the shape id.
func (sh *Shape) ID() int {
	id, _ := attrInt(nonVisualProps(sh.el), "id")
	return int(id)
}

// Name returns the shape name.
func (sh *Shape) Name() string {
	return attrValue(nonVisualProps(sh.el), "name")
}

// FieldKey returns the stable field key stored in the shape metadata.
func (sh *Shape) FieldKey() string {
	return fieldKeyOf(sh.el)
}

// SetFieldKey stores key in the shape metadata.
func (sh *Shape) SetFieldKey(key string) {
	props := nonVisualProps(sh.el)
	if props == nil {
		return
	}
	props.CreateAttr("descr", key)
	sh.slide.pres.touch(sh.slide.part)
}

// IsPlaceholder reports whether the shape is bound to a layout placeholder.
func (sh *Shape) IsPlaceholder() bool {
	return placeholderElement(sh.el) != nil
}

// PlaceholderIdx returns the placeholder index; title placeholders
// conventionally have no idx and report 0.
func (sh *Shape) PlaceholderIdx() (int, bool) {
	ph := placeholderElement(sh.el)
	if ph == nil {
		return 0, false
	}
	idx, _ := attrInt(ph, "idx")
	return int(idx), true
}

// PlaceholderType returns the normalised placeholder type.
func (sh *Shape) PlaceholderType() PlaceholderType {
	ph := placeholderElement(sh.el)
	if ph == nil {
		return TypeUnknown
	}
	return normalisePlaceholderType(attrValue(ph, "type"))
}

// HasTextFrame reports whether the shape can hold text.
func (sh *Shape) HasTextFrame() bool {
	return sh.el.Tag == "sp"
}

// Geometry resolves the shape position, falling back to the layout and
// master placeholders it inherits from.
func (sh *Shape) Geometry() (Geometry, bool) {
	if geom, ok := readGeometry(sh.el); ok {
		return geom, true
	}
	ph := placeholderElement(sh.el)
	if ph == nil || sh.slide.layout == nil {
		return Geometry{}, false
	}
	idx, _ := attrInt(ph, "idx")
	typ := normalisePlaceholderType(attrValue(ph, "type"))

	placeholders, err := sh.slide.layout.Placeholders()
	if err != nil {
		return Geometry{}, false
	}
	for _, candidate := range placeholders {
		if candidate.Idx == int(idx) && candidate.Type == typ && candidate.HasGeometry {
			return candidate.Geometry, true
		}
	}
	return sh.slide.layout.master.geometryFor(Placeholder{Idx: int(idx), Type: typ})
}

// SetText replaces the whole text of the shape. Newlines start new
// paragraphs.
func (sh *Shape) SetText(text string) error {
	return sh.SetParagraphs(strings.Split(text, "\n"))
}

// SetParagraphs replaces the shape text with one paragraph per item at the
// base indent level.
func (sh *Shape) SetParagraphs(items []string) error {
	if !sh.HasTextFrame() {
		return fmt.Errorf("pptx: shape %q has no text frame", sh.Name())
	}
	writeParagraphs(textBody(sh.el), items)
	sh.slide.pres.touch(sh.slide.part)
	return nil
}

// Text returns the shape's paragraphs joined by newlines.
func (sh *Shape) Text() string {
	return readText(child(sh.el, "txBody"))
}

// textBody returns the shape's txBody, creating it after spPr when absent.
func textBody(sp *etree.Element) *etree.Element {
	if body := child(sp, "txBody"); body != nil {
		return body
	}
	body := etree.NewElement("p:txBody")
	body.CreateElement("a:bodyPr")
	body.CreateElement("a:lstStyle")
	insertAfter(sp, body, "nvSpPr", "spPr", "style")
	return body
}

func writeParagraphs(body *etree.Element, items []string) {
	for _, p := range children(body, "p") {
		body.RemoveChild(p)
	}
	if len(items) == 0 {
		body.CreateElement("a:p")
		return
	}
	for _, item := range items {
		para := body.CreateElement("a:p")
		for i, line := range strings.Split(item, "\n") {
			if i > 0 {
				para.CreateElement("a:br")
			}
			if line == "" {
				continue
			}
			run := para.CreateElement("a:r")
			props := run.CreateElement("a:rPr")
			props.CreateAttr("lang", "en-US")
			props.CreateAttr("dirty", "0")
			run.CreateElement("a:t").SetText(line)
		}
	}
}

func readText(body *etree.Element) string {
	var paragraphs []string
	for _, para := range children(body, "p") {
		var b strings.Builder
		for _, el := range para.ChildElements() {
			switch el.Tag {
			case "r", "fld":
				b.WriteString(child(el, "t").Text())
			case "br":
				b.WriteString("\n")
			}
		}
		paragraphs = append(paragraphs, b.String())
	}
	return strings.Join(paragraphs, "\n")
}
