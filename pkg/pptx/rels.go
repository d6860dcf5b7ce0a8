package pptx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

type relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

func (r relationship) external() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// relationships is the parsed content of a part's .rels sidecar.
type relationships struct {
	items []relationship
}

func parseRelationships(data []byte) (*relationships, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}
	rels := &relationships{}
	for _, el := range children(doc.Root(), "Relationship") {
		rels.items = append(rels.items, relationship{
			ID:         el.SelectAttrValue("Id", ""),
			Type:       el.SelectAttrValue("Type", ""),
			Target:     el.SelectAttrValue("Target", ""),
			TargetMode: el.SelectAttrValue("TargetMode", ""),
		})
	}
	return rels, nil
}

func (r *relationships) byID(id string) (relationship, bool) {
	for _, rel := range r.items {
		if rel.ID == id {
			return rel, true
		}
	}
	return relationship{}, false
}

func (r *relationships) firstOfType(relType string) (relationship, bool) {
	for _, rel := range r.items {
		if rel.Type == relType {
			return rel, true
		}
	}
	return relationship{}, false
}

// add registers a relationship and returns its id. An existing relationship
// with the same type and target is reused.
func (r *relationships) add(relType, target string) string {
	next := 0
	for _, rel := range r.items {
		if rel.Type == relType && rel.Target == target && !rel.external() {
			return rel.ID
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > next {
			next = n
		}
	}
	id := fmt.Sprintf("rId%d", next+1)
	r.items = append(r.items, relationship{ID: id, Type: relType, Target: target})
	return id
}

func (r *relationships) remove(id string) {
	out := r.items[:0]
	for _, rel := range r.items {
		if rel.ID != id {
			out = append(out, rel)
		}
	}
	r.items = out
}

func (r *relationships) marshal() ([]byte, error) {
	root := etree.NewElement("Relationships")
	root.CreateAttr("xmlns", nsPackageRels)
	for _, rel := range r.items {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.ID)
		el.CreateAttr("Type", rel.Type)
		el.CreateAttr("Target", rel.Target)
		if rel.TargetMode != "" {
			el.CreateAttr("TargetMode", rel.TargetMode)
		}
	}
	return newXMLDocument(root).WriteToBytes()
}

// relsPartName returns the name of the relationships part belonging to
// partName, e.g. ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPartName(partName string) string {
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget resolves a relationship target against its source part.
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(path.Dir(sourcePart), target)), "/")
}

// relativeTarget computes the relationship target that points from
// sourcePart to targetPart.
func relativeTarget(sourcePart, targetPart string) string {
	from := strings.Split(path.Dir(sourcePart), "/")
	if path.Dir(sourcePart) == "." {
		from = nil
	}
	to := strings.Split(targetPart, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	var parts []string
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}
