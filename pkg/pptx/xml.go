package pptx

import (
	"errors"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"

	relOfficeDocument = nsRelationships + "/officeDocument"
	relSlide          = nsRelationships + "/slide"
	relSlideLayout    = nsRelationships + "/slideLayout"
	relNotesSlide     = nsRelationships + "/notesSlide"
	relNotesMaster    = nsRelationships + "/notesMaster"
	relTheme          = nsRelationships + "/theme"
	relImage          = nsRelationships + "/image"

	ctSlide       = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctNotesSlide  = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	ctNotesMaster = "application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"
	ctRels        = "application/vnd.openxmlformats-package.relationships+xml"
	ctXML         = "application/xml"

	contentTypesPart = "[Content_Types].xml"
	rootRelsPart     = "_rels/.rels"

	xmlDeclaration = `version="1.0" encoding="UTF-8" standalone="yes"`
)

func parseXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

func newXMLDocument(root *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlDeclaration)
	doc.SetRoot(root)
	return doc
}

// newPresentationRoot creates a root element declaring the a/r/p prefixes
// used by every part this package writes.
func newPresentationRoot(tag string) *etree.Element {
	root := etree.NewElement(tag)
	root.CreateAttr("xmlns:a", nsDrawing)
	root.CreateAttr("xmlns:r", nsRelationships)
	root.CreateAttr("xmlns:p", nsPresentation)
	return root
}

// child returns the first direct child with the given local name, ignoring
// the namespace prefix.
func child(el *etree.Element, local string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, local string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

func descend(el *etree.Element, locals ...string) *etree.Element {
	for _, local := range locals {
		el = child(el, local)
		if el == nil {
			return nil
		}
	}
	return el
}

// relID returns the value of the r:id attribute whatever prefix the
// relationships namespace was bound to.
func relID(el *etree.Element) string {
	if el == nil {
		return ""
	}
	for _, attr := range el.Attr {
		if attr.Key == "id" && attr.Space != "" {
			return attr.Value
		}
	}
	return ""
}

func attrInt(el *etree.Element, key string) (int64, bool) {
	if el == nil {
		return 0, false
	}
	raw := strings.TrimSpace(el.SelectAttrValue(key, ""))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// insertAfter places el directly after the last existing child named by one
// of the anchors, or first when none exists.
func insertAfter(parent, el *etree.Element, anchors ...string) {
	index := 0
	for _, c := range parent.ChildElements() {
		for _, anchor := range anchors {
			if c.Tag == anchor {
				index = c.Index() + 1
			}
		}
	}
	parent.InsertChildAt(index, el)
}

// attrValue is SelectAttrValue tolerating a nil element.
func attrValue(el *etree.Element, key string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(key, "")
}

// qualified names local with the prefix used by root.
func qualified(root *etree.Element, local string) string {
	if root.Space == "" {
		return local
	}
	return root.Space + ":" + local
}
