package testsupport

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math"
	"strings"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	ctBase  = "application/vnd.openxmlformats-officedocument.presentationml"
)

// Placeholder describes one placeholder of a synthetic layout. Positions
// are in inches; a zero width means the placeholder inherits its geometry
// from the master.
type Placeholder struct {
	Name     string
	Type     string // raw ST_PlaceholderType value, "" for a generic object
	Idx      int
	FieldKey string
	X, Y     float64
	W, H     float64
}

// Layout is a synthetic slide layout.
type Layout struct {
	Name         string
	Placeholders []Placeholder
}

// TemplateSpec configures BuildTemplate.
type TemplateSpec struct {
	Layouts []Layout
	// ExampleSlides adds that many slides instantiated from the second
	// layout, standing in for the example content shipped with templates.
	ExampleSlides int
	// NotesMaster adds a notes master to the package.
	NotesMaster bool
}

var footerPlaceholders = []Placeholder{
	{Name: "Date Placeholder", Type: "dt", Idx: 10, FieldKey: "ph_date"},
	{Name: "Footer Placeholder", Type: "ftr", Idx: 11, FieldKey: "ph_footer"},
	{Name: "Slide Number Placeholder", Type: "sldNum", Idx: 12, FieldKey: "ph_slide_number"},
}

func titlePlaceholder() Placeholder {
	return Placeholder{Name: "Title 1", Type: "title", FieldKey: "ph_title", X: 0.5, Y: 0.25, W: 12.25, H: 1.0}
}

func withFooters(phs ...Placeholder) []Placeholder {
	return append(phs, footerPlaceholders...)
}

// DefaultLayouts mirrors the layouts described by DefaultCatalogJSON, in
// template order.
func DefaultLayouts() []Layout {
	return []Layout{
		{Name: "Title Slide", Placeholders: withFooters(
			Placeholder{Name: "Title 1", Type: "ctrTitle", FieldKey: "ph_title", X: 1.0, Y: 2.0, W: 11.25, H: 1.5},
			Placeholder{Name: "Subtitle 2", Type: "subTitle", Idx: 1, FieldKey: "ph_subtitle", X: 1.0, Y: 3.75, W: 11.25, H: 1.0},
		)},
		{Name: "One Content - Light", Placeholders: withFooters(
			titlePlaceholder(),
			Placeholder{Name: "Content Placeholder 2", Idx: 1, FieldKey: "ph_body", X: 0.5, Y: 1.5, W: 12.25, H: 5.5},
		)},
		{Name: "Two Content - Light", Placeholders: withFooters(
			titlePlaceholder(),
			Placeholder{Name: "Content Placeholder 2", Idx: 1, FieldKey: "ph_body_left", X: 0.5, Y: 1.5, W: 6.0, H: 5.5},
			Placeholder{Name: "Content Placeholder 3", Idx: 2, FieldKey: "ph_body_right", X: 6.75, Y: 1.5, W: 6.0, H: 5.5},
		)},
		{Name: "Header Only - Light", Placeholders: withFooters(
			titlePlaceholder(),
		)},
		{Name: "One Content With Image - Light", Placeholders: withFooters(
			titlePlaceholder(),
			Placeholder{Name: "Text Placeholder 2", Type: "body", Idx: 1, FieldKey: "ph_body", X: 0.5, Y: 1.5, W: 6.0, H: 5.5},
			Placeholder{Name: "Picture Placeholder 3", Type: "pic", Idx: 2, FieldKey: "ph_image", X: 7.0, Y: 1.5, W: 5.75, H: 5.5},
		)},
		{Name: "Three content - Light", Placeholders: withFooters(
			titlePlaceholder(),
			Placeholder{Name: "Content Placeholder 2", Idx: 1, FieldKey: "ph_col1", X: 0.5, Y: 1.5, W: 3.75, H: 5.0},
			Placeholder{Name: "Content Placeholder 3", Idx: 2, FieldKey: "ph_col2", X: 4.75, Y: 1.5, W: 3.75, H: 5.0},
			Placeholder{Name: "Content Placeholder 4", Idx: 3, FieldKey: "ph_col3", X: 9.0, Y: 1.5, W: 3.75, H: 5.0},
		)},
		{Name: "Statement - Light", Placeholders: withFooters(
			titlePlaceholder(),
			Placeholder{Name: "Text Placeholder 2", Type: "body", Idx: 1, FieldKey: "ph_body", X: 1.0, Y: 2.0, W: 11.25, H: 3.0},
		)},
		{Name: "Blank", Placeholders: withFooters()},
	}
}

// StripFieldKeys returns a copy of layouts with every field key removed,
// the state of a template before annotation.
func StripFieldKeys(layouts []Layout) []Layout {
	out := make([]Layout, len(layouts))
	for i, layout := range layouts {
		out[i] = Layout{Name: layout.Name, Placeholders: append([]Placeholder(nil), layout.Placeholders...)}
		for j := range out[i].Placeholders {
			out[i].Placeholders[j].FieldKey = ""
		}
	}
	return out
}

// DefaultTemplate builds the default template with one example slide.
func DefaultTemplate() []byte {
	return BuildTemplate(TemplateSpec{Layouts: DefaultLayouts(), ExampleSlides: 1})
}

// BuildTemplate assembles a minimal but well-formed presentation package
// with a single slide master.
func BuildTemplate(spec TemplateSpec) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}

	var overrides []string
	override := func(part, contentType string) {
		overrides = append(overrides, fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, part, contentType))
	}
	override("ppt/presentation.xml", ctBase+".presentation.main+xml")
	override("ppt/slideMasters/slideMaster1.xml", ctBase+".slideMaster+xml")
	override("ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")

	var layoutIDs, masterRels []string
	for i, layout := range spec.Layouts {
		part := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		override(part, ctBase+".slideLayout+xml")
		write(part, layoutXML(layout))
		write(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", i+1),
			relsXML(rel("rId1", "slideMaster", "../slideMasters/slideMaster1.xml")))
		layoutIDs = append(layoutIDs, fmt.Sprintf(`<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, i+1))
		masterRels = append(masterRels, rel(fmt.Sprintf("rId%d", i+1), "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i+1)))
	}
	masterRels = append(masterRels, rel(fmt.Sprintf("rId%d", len(spec.Layouts)+1), "theme", "../theme/theme1.xml"))
	write("ppt/slideMasters/slideMaster1.xml", masterXML(strings.Join(layoutIDs, "")))
	write("ppt/slideMasters/_rels/slideMaster1.xml.rels", relsXML(masterRels...))
	write("ppt/theme/theme1.xml", themeXML)

	presRels := []string{
		rel("rId1", "slideMaster", "slideMasters/slideMaster1.xml"),
		rel("rId2", "theme", "theme/theme1.xml"),
	}
	nextRel := 3
	var notesList string
	if spec.NotesMaster {
		override("ppt/notesMasters/notesMaster1.xml", ctBase+".notesMaster+xml")
		override("ppt/theme/theme2.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
		write("ppt/notesMasters/notesMaster1.xml", notesMasterXML)
		write("ppt/notesMasters/_rels/notesMaster1.xml.rels", relsXML(rel("rId1", "theme", "../theme/theme2.xml")))
		write("ppt/theme/theme2.xml", themeXML)
		presRels = append(presRels, rel(fmt.Sprintf("rId%d", nextRel), "notesMaster", "notesMasters/notesMaster1.xml"))
		notesList = fmt.Sprintf(`<p:notesMasterIdLst><p:notesMasterId r:id="rId%d"/></p:notesMasterIdLst>`, nextRel)
		nextRel++
	}

	var slideIDs []string
	for i := 0; i < spec.ExampleSlides && len(spec.Layouts) > 1; i++ {
		part := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		override(part, ctBase+".slide+xml")
		write(part, exampleSlideXML(i+1))
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1),
			relsXML(rel("rId1", "slideLayout", "../slideLayouts/slideLayout2.xml")))
		presRels = append(presRels, rel(fmt.Sprintf("rId%d", nextRel), "slide", fmt.Sprintf("slides/slide%d.xml", i+1)))
		slideIDs = append(slideIDs, fmt.Sprintf(`<p:sldId id="%d" r:id="rId%d"/>`, 256+i, nextRel))
		nextRel++
	}
	slideList := ""
	if len(slideIDs) > 0 {
		slideList = "<p:sldIdLst>" + strings.Join(slideIDs, "") + "</p:sldIdLst>"
	}

	write("ppt/presentation.xml", xmlHeader+
		`<p:presentation xmlns:a="`+nsA+`" xmlns:r="`+nsR+`" xmlns:p="`+nsP+`">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
		notesList+slideList+
		`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`+
		`</p:presentation>`)
	write("ppt/_rels/presentation.xml.rels", relsXML(presRels...))
	write("_rels/.rels", relsXML(`<Relationship Id="rId1" Type="`+relBase+`/officeDocument" Target="ppt/presentation.xml"/>`))

	types := xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		strings.Join(overrides, "") + `</Types>`
	write("[Content_Types].xml", types)

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

func rel(id, kind, target string) string {
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s/%s" Target="%s"/>`, id, relBase, kind, target)
}

func relsXML(items ...string) string {
	return xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		strings.Join(items, "") + `</Relationships>`
}

// EMU converts inches to English Metric Units.
func EMU(inches float64) int64 {
	return int64(math.Round(inches * 914400))
}

const groupProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`

func placeholderXML(id int, ph Placeholder) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:nvSpPr>`)
	fmt.Fprintf(&b, `<p:cNvPr id="%d" name="%s"`, id, ph.Name)
	if ph.FieldKey != "" {
		fmt.Fprintf(&b, ` descr="%s"`, ph.FieldKey)
	}
	b.WriteString(`/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph`)
	if ph.Type != "" {
		fmt.Fprintf(&b, ` type="%s"`, ph.Type)
	}
	if ph.Idx > 0 {
		fmt.Fprintf(&b, ` idx="%d"`, ph.Idx)
	}
	b.WriteString(`/></p:nvPr></p:nvSpPr><p:spPr>`)
	if ph.W > 0 {
		fmt.Fprintf(&b, `<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
			EMU(ph.X), EMU(ph.Y), EMU(ph.W), EMU(ph.H))
	}
	b.WriteString(`</p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US"/><a:t>`)
	b.WriteString(ph.Name)
	b.WriteString(`</a:t></a:r></a:p></p:txBody></p:sp>`)
	return b.String()
}

func layoutXML(layout Layout) string {
	var shapes strings.Builder
	for i, ph := range layout.Placeholders {
		shapes.WriteString(placeholderXML(i+2, ph))
	}
	return xmlHeader + `<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" preserve="1">` +
		`<p:cSld name="` + layout.Name + `"><p:spTree>` + groupProps + shapes.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`
}

func masterXML(layoutIDs string) string {
	shapes := []Placeholder{
		{Name: "Title Placeholder 1", Type: "title", X: 0.5, Y: 0.25, W: 12.25, H: 1.0},
		{Name: "Text Placeholder 2", Type: "body", Idx: 1, X: 0.5, Y: 1.5, W: 12.25, H: 5.5},
		{Name: "Date Placeholder 3", Type: "dt", Idx: 10, X: 0.5, Y: 7.0, W: 3.0, H: 0.4},
		{Name: "Footer Placeholder 4", Type: "ftr", Idx: 11, X: 4.5, Y: 7.0, W: 4.25, H: 0.4},
		{Name: "Slide Number Placeholder 5", Type: "sldNum", Idx: 12, X: 9.75, Y: 7.0, W: 3.0, H: 0.4},
	}
	var b strings.Builder
	for i, ph := range shapes {
		b.WriteString(placeholderXML(i+2, ph))
	}
	return xmlHeader + `<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + groupProps + b.String() + `</p:spTree></p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		`<p:sldLayoutIdLst>` + layoutIDs + `</p:sldLayoutIdLst></p:sldMaster>`
}

func exampleSlideXML(n int) string {
	return xmlHeader + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + groupProps +
		placeholderXML(2, Placeholder{Name: fmt.Sprintf("Example Title %d", n), Type: "title"}) +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

const themeXML = xmlHeader + `<a:theme xmlns:a="` + nsA + `" name="Test Theme"><a:themeElements>` +
	`<a:clrScheme name="Test"><a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1></a:clrScheme>` +
	`</a:themeElements></a:theme>`

const notesMasterXML = xmlHeader + `<p:notesMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:spTree>` + groupProps + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`</p:notesMaster>`
