package pptx

import (
	"strings"

	"github.com/beevik/etree"
)

// contentTypes wraps [Content_Types].xml.
type contentTypes struct {
	doc *etree.Document
}

func parseContentTypes(data []byte) (*contentTypes, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}
	return &contentTypes{doc: doc}, nil
}

func (c *contentTypes) setOverride(partName, contentType string) {
	name := "/" + partName
	for _, el := range children(c.doc.Root(), "Override") {
		if el.SelectAttrValue("PartName", "") == name {
			el.CreateAttr("ContentType", contentType)
			return
		}
	}
	el := c.doc.Root().CreateElement("Override")
	el.CreateAttr("PartName", name)
	el.CreateAttr("ContentType", contentType)
}

func (c *contentTypes) ensureDefault(ext, contentType string) {
	ext = strings.ToLower(ext)
	for _, el := range children(c.doc.Root(), "Default") {
		if strings.EqualFold(el.SelectAttrValue("Extension", ""), ext) {
			return
		}
	}
	el := etree.NewElement("Default")
	el.CreateAttr("Extension", ext)
	el.CreateAttr("ContentType", contentType)
	insertAfter(c.doc.Root(), el, "Default")
}

// prune drops overrides for parts that are not part of the package.
func (c *contentTypes) prune(keep func(partName string) bool) {
	root := c.doc.Root()
	for _, el := range children(root, "Override") {
		name := strings.TrimPrefix(el.SelectAttrValue("PartName", ""), "/")
		if !keep(name) {
			root.RemoveChild(el)
		}
	}
}

func (c *contentTypes) marshal() ([]byte, error) {
	return c.doc.WriteToBytes()
}
