package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const ctTheme = "application/vnd.openxmlformats-officedocument.theme+xml"

// SetNotes replaces the speaker notes of the slide. Each line of text
// becomes one paragraph.
func (s *Slide) SetNotes(text string) error {
	part, err := s.notesSlide()
	if err != nil {
		return err
	}
	doc, err := s.pres.xml(part)
	if err != nil {
		return err
	}
	body := notesBody(doc.Root())
	if body == nil {
		return fmt.Errorf("pptx: notes slide %s has no body placeholder", part)
	}
	writeParagraphs(textBody(body), strings.Split(text, "\n"))
	s.pres.touch(part)
	return nil
}

// Notes returns the speaker notes text, or "" when the slide has none.
func (s *Slide) Notes() string {
	rels, err := s.pres.relsFor(s.part)
	if err != nil {
		return ""
	}
	rel, ok := rels.firstOfType(relNotesSlide)
	if !ok {
		return ""
	}
	doc, err := s.pres.xml(resolveTarget(s.part, rel.Target))
	if err != nil {
		return ""
	}
	body := notesBody(doc.Root())
	if body == nil {
		return ""
	}
	return readText(child(body, "txBody"))
}

func notesBody(root *etree.Element) *etree.Element {
	tree := descend(root, "cSld", "spTree")
	if tree == nil {
		return nil
	}
	for _, el := range tree.ChildElements() {
		if ph := placeholderElement(el); ph != nil && attrValue(ph, "type") == "body" {
			return el
		}
	}
	return nil
}

// notesSlide returns the notes part of the slide, creating it on first use.
func (s *Slide) notesSlide() (string, error) {
	rels, err := s.pres.relsFor(s.part)
	if err != nil {
		return "", err
	}
	if rel, ok := rels.firstOfType(relNotesSlide); ok {
		return resolveTarget(s.part, rel.Target), nil
	}

	master, err := s.pres.ensureNotesMaster()
	if err != nil {
		return "", err
	}
	part := s.pres.uniquePartName("ppt/notesSlides/notesSlide%d.xml")
	root := newPresentationRoot("p:notes")
	tree := root.CreateElement("p:cSld").CreateElement("p:spTree")
	writeGroupProps(tree)
	addNotesPlaceholder(tree, 2, "Slide Image Placeholder 1", "sldImg", "")
	addNotesPlaceholder(tree, 3, "Notes Placeholder 2", "body", "1")
	root.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")
	s.pres.putXML(part, newXMLDocument(root), ctNotesSlide)

	notesRels, err := s.pres.relsFor(part)
	if err != nil {
		return "", err
	}
	notesRels.add(relNotesMaster, relativeTarget(part, master))
	notesRels.add(relSlide, relativeTarget(part, s.part))
	s.pres.touchRels(part)

	rels.add(relNotesSlide, relativeTarget(s.part, part))
	s.pres.touchRels(s.part)
	return part, nil
}

func addNotesPlaceholder(tree *etree.Element, id int, name, phType, idx string) {
	sp := tree.CreateElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	props := nv.CreateElement("p:cNvPr")
	props.CreateAttr("id", strconv.Itoa(id))
	props.CreateAttr("name", name)
	locks := nv.CreateElement("p:cNvSpPr").CreateElement("a:spLocks")
	locks.CreateAttr("noGrp", "1")
	ph := nv.CreateElement("p:nvPr").CreateElement("p:ph")
	ph.CreateAttr("type", phType)
	if idx != "" {
		ph.CreateAttr("idx", idx)
	}
	sp.CreateElement("p:spPr")
	if phType == "body" {
		body := sp.CreateElement("p:txBody")
		body.CreateElement("a:bodyPr")
		body.CreateElement("a:lstStyle")
		body.CreateElement("a:p")
	}
}

// ensureNotesMaster returns the notes master part, adding a minimal one
// that borrows the first slide master's theme when the template has none.
func (p *Presentation) ensureNotesMaster() (string, error) {
	if p.notesMaster != "" {
		return p.notesMaster, nil
	}
	if len(p.masters) == 0 {
		return "", fmt.Errorf("pptx: template has no slide master")
	}

	part := p.uniquePartName("ppt/notesMasters/notesMaster%d.xml")
	root := newPresentationRoot("p:notesMaster")
	cSld := root.CreateElement("p:cSld")
	bgRef := cSld.CreateElement("p:bg").CreateElement("p:bgRef")
	bgRef.CreateAttr("idx", "1001")
	bgRef.CreateElement("a:schemeClr").CreateAttr("val", "bg1")
	tree := cSld.CreateElement("p:spTree")
	writeGroupProps(tree)
	addNotesPlaceholder(tree, 2, "Slide Image Placeholder 1", "sldImg", "2")
	addNotesPlaceholder(tree, 3, "Notes Placeholder 2", "body", "3")
	clrMap := root.CreateElement("p:clrMap")
	for _, pair := range [][2]string{
		{"bg1", "lt1"}, {"tx1", "dk1"}, {"bg2", "lt2"}, {"tx2", "dk2"},
		{"accent1", "accent1"}, {"accent2", "accent2"}, {"accent3", "accent3"},
		{"accent4", "accent4"}, {"accent5", "accent5"}, {"accent6", "accent6"},
		{"hlink", "hlink"}, {"folHlink", "folHlink"},
	} {
		clrMap.CreateAttr(pair[0], pair[1])
	}
	p.putXML(part, newXMLDocument(root), ctNotesMaster)

	theme, err := p.copyMasterTheme()
	if err != nil {
		return "", err
	}
	rels, err := p.relsFor(part)
	if err != nil {
		return "", err
	}
	rels.add(relTheme, relativeTarget(part, theme))
	p.touchRels(part)

	pres, err := p.xml(p.presPart)
	if err != nil {
		return "", err
	}
	presRels, err := p.relsFor(p.presPart)
	if err != nil {
		return "", err
	}
	presRoot := pres.Root()
	list := child(presRoot, "notesMasterIdLst")
	if list == nil {
		list = etree.NewElement(qualified(presRoot, "notesMasterIdLst"))
		insertAfter(presRoot, list, "sldMasterIdLst")
	}
	ref := list.CreateElement(qualified(presRoot, "notesMasterId"))
	ref.CreateAttr("r:id", presRels.add(relNotesMaster, relativeTarget(p.presPart, part)))
	p.touch(p.presPart)
	p.touchRels(p.presPart)

	p.notesMaster = part
	return part, nil
}

func (p *Presentation) copyMasterTheme() (string, error) {
	masterRels, err := p.relsFor(p.masters[0].part)
	if err != nil {
		return "", err
	}
	rel, ok := masterRels.firstOfType(relTheme)
	if !ok {
		return "", fmt.Errorf("pptx: slide master has no theme")
	}
	data, ok := p.parts[resolveTarget(p.masters[0].part, rel.Target)]
	if !ok {
		return "", fmt.Errorf("pptx: slide master theme %s not found", rel.Target)
	}
	part := p.uniquePartName("ppt/theme/theme%d.xml")
	p.parts[part] = append([]byte(nil), data...)
	p.types.setOverride(part, ctTheme)
	return part, nil
}
