package models

// Classification is the pipeline verdict for one draft.
type Classification struct {
	Category   string
	Confidence *int
	Source     Source
	IsTransfer bool
	IsPersonal bool
	Tags       []string
}

// Categorized reports whether a category was assigned.
func (c Classification) Categorized() bool {
	return c.Category != ""
}

// Unclassified is the verdict when no stage matched.
func Unclassified() Classification {
	return Classification{Source: SourceImportAuto}
}

// ConfidenceLabel renders a confidence score for review screens.
func ConfidenceLabel(confidence *int) string {
	if confidence == nil {
		return ""
	}
	switch {
	case *confidence >= 80:
		return "High"
	case *confidence >= 50:
		return "Medium"
	default:
		return "Low"
	}
}
