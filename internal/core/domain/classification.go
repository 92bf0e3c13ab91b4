package domain

// Category is the routing class of a query.
type Category string

// Query categories. The set is open: new categories only need a
// provider order registered with the router.
const (
	CategoryCodeTechnical Category = "code_technical"
	CategoryGeneral       Category = "general"
)

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Description returns a human-readable description of the category.
func (c Category) Description() string {
	switch c {
	case CategoryCodeTechnical:
		return "Code / Technical"
	case CategoryGeneral:
		return "General"
	default:
		return "Unknown"
	}
}

// ClassificationResult is the output of the domain classifier.
// Confidence is advisory and only used for logging.
type ClassificationResult struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`

	// Indicators lists the matched technical indicators, if any.
	Indicators []string `json:"indicators,omitempty"`
}

// Context domain labels recognised by the keyword domain classifier.
const (
	DomainMedical   = "medical"
	DomainLegal     = "legal"
	DomainTechnical = "technical"
	DomainEducation = "education"
	DomainFinance   = "finance"
	DomainGeneral   = "general"
	DomainWeb       = "web"
)
