package models

// KeywordRule is one entry of the static keyword table. When Category is not
// in the owner's set, Fallback is used; when neither exists the entry is
// skipped.
type KeywordRule struct {
	Keywords []string `yaml:"keywords"`
	Category string   `yaml:"category"`
	Fallback string   `yaml:"fallback,omitempty"`
}

// TagRule attaches Tag to every row whose description contains Keyword.
type TagRule struct {
	Keyword string `yaml:"keyword"`
	Tag     string `yaml:"tag"`
}

// KeywordTable is the YAML document holding an ordered keyword table and,
// optionally, the ordered tag table.
type KeywordTable struct {
	Rules []KeywordRule `yaml:"rules"`
	Tags  []TagRule     `yaml:"tags,omitempty"`
}
