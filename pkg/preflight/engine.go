package preflight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/deckir"
)

// OverflowBanner separates the original speaker notes from remediation
// markers.
const OverflowBanner = "--- REMEDIATION OVERFLOW ---"

// Fallback key conventions for fields the catalog does not describe.
var (
	fallbackTitleKey     = "ph_title"
	fallbackBodyPrefixes = []string{"ph_body", "ph_col", "ph_content"}
)

// ValidateAndRemediate checks every slide of deck against its layout's
// constraints and returns a remediated copy together with the report. The
// input deck is never modified.
func ValidateAndRemediate(deck deckir.DeckIR, cat *catalog.Catalog) (deckir.DeckIR, Report) {
	out := deck.Clone()
	report := Report{Violations: []Violation{}}
	for i, slide := range out.Slides {
		fixed, violations := RemediateSlide(slide, cat)
		out.Slides[i] = fixed
		report.Violations = append(report.Violations, violations...)
	}
	return out, report
}

// Check reports violations without remediating.
func Check(deck deckir.DeckIR, cat *catalog.Catalog) Report {
	report := Report{Violations: []Violation{}}
	for _, slide := range deck.Slides {
		report.Violations = append(report.Violations, checkSlide(slide, cat)...)
	}
	return report
}

// RemediateSlide runs the pipeline for a single slide. Slides that
// reference a layout missing from the catalog come back unchanged with one
// blocking violation.
func RemediateSlide(slide deckir.DeckSlide, cat *catalog.Catalog) (deckir.DeckSlide, []Violation) {
	slide = slide.Clone()
	violations := checkSlide(slide, cat)
	if len(violations) == 0 {
		return slide, violations
	}
	entry, ok := lookup(cat, slide.LayoutID)
	if !ok {
		return slide, violations
	}

	c := entry.Constraints
	titleKey, bodyKeys := classify(slide, entry)
	var markers []string
	for _, key := range bodyKeys {
		value, moved := remediateBody(key, slide.Fields[key], c)
		slide.Fields[key] = value
		markers = append(markers, moved...)
	}

	if titleKey != "" && c.MaxTitleChars > 0 {
		title := slide.Fields[titleKey]
		if CountChars(title) > c.MaxTitleChars {
			slide.Fields[titleKey] = deckir.TextValue(Truncate(title.Text(" "), c.MaxTitleChars))
		}
	}

	if len(markers) > 0 {
		slide.SpeakerNotes = appendOverflow(slide.SpeakerNotes, markers)
	}
	return slide, violations
}

func lookup(cat *catalog.Catalog, layoutID string) (catalog.Entry, bool) {
	if cat == nil {
		return catalog.Entry{}, false
	}
	return cat.Lookup(layoutID)
}

func checkSlide(slide deckir.DeckSlide, cat *catalog.Catalog) []Violation {
	entry, ok := lookup(cat, slide.LayoutID)
	if !ok {
		return []Violation{{
			SlideID:           slide.SlideID,
			LayoutID:          slide.LayoutID,
			Type:              BodyTooDense,
			Severity:          SeverityBlocking,
			RecommendedAction: fmt.Sprintf("Unknown layout_id %q; map the slide to a layout from the catalog", slide.LayoutID),
		}}
	}

	c := entry.Constraints
	titleKey, bodyKeys := classify(slide, entry)
	violations := []Violation{}
	add := func(key string, typ ViolationType, severity Severity, action string) {
		violations = append(violations, Violation{
			SlideID:           slide.SlideID,
			LayoutID:          slide.LayoutID,
			FieldKey:          &key,
			Type:              typ,
			Severity:          severity,
			RecommendedAction: action,
		})
	}

	if titleKey != "" && c.MaxTitleChars > 0 {
		if n := CountChars(slide.Fields[titleKey]); n > c.MaxTitleChars {
			add(titleKey, TitleTooLong, SeverityWarn,
				fmt.Sprintf("Shorten the title from %d to at most %d characters", n, c.MaxTitleChars))
		}
	}

	for _, key := range bodyKeys {
		value := slide.Fields[key]
		chars := CountChars(value)

		if n := CountBullets(value); n > c.MaxBullets {
			action := fmt.Sprintf("Reduce %d bullets to %d; the rest move to speaker notes", n, c.MaxBullets)
			if c.MaxBullets == 0 {
				action = fmt.Sprintf("Layout %s takes no body content; move the text to speaker notes or pick another layout", entry.LayoutID)
			}
			add(key, TooManyBullets, SeverityBlocking, action)
		}
		if c.MaxWordsPerBullet > 0 {
			if n := MaxWords(value); n > c.MaxWordsPerBullet {
				add(key, WordsPerBullet, SeverityWarn,
					fmt.Sprintf("Condense bullets to %d words or fewer (longest has %d)", c.MaxWordsPerBullet, n))
			}
		}
		if chars > c.MaxTotalBodyChars {
			add(key, TotalBodyChars, SeverityBlocking,
				fmt.Sprintf("Cut body text from %d to at most %d characters", chars, c.MaxTotalBodyChars))
		}
		if c.BodyLineBudget > 0 && c.AvgCharsPerLine > 0 {
			if lines := EstimateLines(chars, c.AvgCharsPerLine); lines > c.BodyLineBudget {
				add(key, BodyLineBudget, SeverityWarn,
					fmt.Sprintf("Body needs about %d lines; the layout fits %d", lines, c.BodyLineBudget))
			}
		}
	}
	return violations
}

// classify picks the title field and the body fields present on the slide.
// Catalog order wins; unknown keys are matched by naming convention.
func classify(slide deckir.DeckSlide, entry catalog.Entry) (string, []string) {
	title := ""
	var body []string
	seen := make(map[string]bool)
	for _, field := range entry.Fields {
		seen[field.FieldKey] = true
		if _, ok := slide.Fields[field.FieldKey]; !ok {
			continue
		}
		switch {
		case field.Type == catalog.FieldTitle && title == "":
			title = field.FieldKey
		case field.Type.IsBody():
			body = append(body, field.FieldKey)
		}
	}

	rest := make([]string, 0, len(slide.Fields))
	for key := range slide.Fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if key == fallbackTitleKey {
			if title == "" {
				title = key
			}
			continue
		}
		if isBodyKey(key) {
			body = append(body, key)
		}
	}
	return title, body
}

func isBodyKey(key string) bool {
	for _, prefix := range fallbackBodyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// charBudget is the tightest character limit implied by the constraints.
func charBudget(c catalog.Constraints) int {
	budget := c.MaxTotalBodyChars
	if c.BodyLineBudget > 0 && c.AvgCharsPerLine > 0 {
		budget = min(budget, c.BodyLineBudget*c.AvgCharsPerLine)
	}
	return budget
}

// remediateBody applies the drop, condense, move and truncate steps to one
// body field and returns the new value with the notes markers it produced.
func remediateBody(key string, value deckir.FieldValue, c catalog.Constraints) (deckir.FieldValue, []string) {
	var markers []string

	// drop
	if CountBullets(value) > c.MaxBullets {
		if value.IsBullets() {
			items := value.Items()
			markers = append(markers, fmt.Sprintf("Overflow from %s: %s", key, strings.Join(items[c.MaxBullets:], " | ")))
			value = deckir.BulletValue(items[:c.MaxBullets]...)
		} else {
			markers = append(markers, fmt.Sprintf("Overflow from %s: %s", key, value.Text("")))
			value = deckir.TextValue("")
		}
	}

	// condense
	if c.MaxWordsPerBullet > 0 && MaxWords(value) > c.MaxWordsPerBullet {
		value = mapItems(value, func(s string) string { return Shorten(s, c.MaxWordsPerBullet) })
	}

	// move, then truncate
	budget := charBudget(c)
	for CountChars(value) > budget {
		items := value.Items()
		if value.IsBullets() && len(items) > 1 {
			last := items[len(items)-1]
			markers = append(markers, fmt.Sprintf("Moved from %s: %s", key, last))
			value = deckir.BulletValue(items[:len(items)-1]...)
			continue
		}
		original := items[0]
		markers = append(markers, fmt.Sprintf("Full text from %s: %s", key, original))
		value = mapItems(value, func(s string) string { return Truncate(s, budget) })
		break
	}
	return value, markers
}

func mapItems(value deckir.FieldValue, fn func(string) string) deckir.FieldValue {
	items := value.Items()
	for i, item := range items {
		items[i] = fn(item)
	}
	if value.IsBullets() {
		return deckir.BulletValue(items...)
	}
	return deckir.TextValue(items[0])
}

func appendOverflow(notes deckir.Notes, markers []string) deckir.Notes {
	block := OverflowBanner + "\n" + strings.Join(markers, "\n")
	if text := notes.Text(); text != "" {
		return deckir.PlainNotes(text + "\n\n" + block)
	}
	return deckir.PlainNotes(block)
}
