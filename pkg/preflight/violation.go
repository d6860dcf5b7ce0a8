package preflight

import "encoding/json"

// Severity grades a violation.
type Severity string

const (
	// SeverityBlocking marks content that needed automatic correction or
	// cannot be fixed automatically.
	SeverityBlocking Severity = "BLOCKING"
	// SeverityWarn is advisory.
	SeverityWarn Severity = "WARN"
)

// ViolationType is the closed set of capacity findings.
type ViolationType string

const (
	TitleTooLong   ViolationType = "TITLE_TOO_LONG"
	BodyTooDense   ViolationType = "BODY_TOO_DENSE"
	TooManyBullets ViolationType = "TOO_MANY_BULLETS"
	WordsPerBullet ViolationType = "WORDS_PER_BULLET"
	TotalBodyChars ViolationType = "TOTAL_BODY_CHARS"
	BodyLineBudget ViolationType = "BODY_LINE_BUDGET"
)

// Violation is one finding on one slide.
type Violation struct {
	SlideID           string        `json:"slide_id"`
	LayoutID          string        `json:"layout_id"`
	FieldKey          *string       `json:"field_key"`
	Type              ViolationType `json:"violation_type"`
	Severity          Severity      `json:"severity"`
	RecommendedAction string        `json:"recommended_action"`
}

// Field returns the field key, or "" for slide-level findings.
func (v Violation) Field() string {
	if v.FieldKey == nil {
		return ""
	}
	return *v.FieldKey
}

// Report is the ordered list of violations for a deck. An empty report
// means every slide fits its layout as delivered.
type Report struct {
	Violations []Violation `json:"violations"`
}

// Empty reports whether there are no violations.
func (r Report) Empty() bool {
	return len(r.Violations) == 0
}

// Blocking returns the blocking violations.
func (r Report) Blocking() []Violation {
	return r.filter(SeverityBlocking)
}

// Warnings returns the advisory violations.
func (r Report) Warnings() []Violation {
	return r.filter(SeverityWarn)
}

func (r Report) filter(severity Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == severity {
			out = append(out, v)
		}
	}
	return out
}

// CountByType tallies violations per type.
func (r Report) CountByType() map[ViolationType]int {
	out := make(map[ViolationType]int)
	for _, v := range r.Violations {
		out[v.Type]++
	}
	return out
}

// SlideIDs lists the distinct slides with findings, in report order.
func (r Report) SlideIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range r.Violations {
		if !seen[v.SlideID] {
			seen[v.SlideID] = true
			out = append(out, v.SlideID)
		}
	}
	return out
}

func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	out := plain(r)
	if out.Violations == nil {
		out.Violations = []Violation{}
	}
	return json.Marshal(out)
}
