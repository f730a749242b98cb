package converter

// Result holds the output of a conversion.
type Result struct {
	HTML      string     `json:"html"`
	Footnotes []Footnote `json:"footnotes,omitempty"`
	Warnings  []Warning  `json:"warnings,omitempty"`
}

// Footnote is a reference body collected from a <ref> tag.
// Number is assigned at first occurrence, starting at 1.
type Footnote struct {
	Number int    `json:"number"`
	Name   string `json:"name,omitempty"`
	Body   string `json:"body"`
}

// WarningType categorizes conversion warnings.
type WarningType string

const (
	WarningUnresolvedReference WarningType = "unresolved_reference"
	WarningResolverFailure     WarningType = "resolver_failure"
	WarningTemplateFallback    WarningType = "template_fallback"
	WarningDroppedContent      WarningType = "dropped_content"
	WarningUnterminatedSpan    WarningType = "unterminated_span"
	WarningTableWidth          WarningType = "table_width"
	WarningHighlightFallback   WarningType = "highlight_fallback"
	WarningSanitizerMissing    WarningType = "sanitizer_missing"
)

// Warning represents a non-fatal issue encountered during conversion.
type Warning struct {
	Type      WarningType `json:"type"`
	Construct string      `json:"construct,omitempty"`
	Message   string      `json:"message"`
}
