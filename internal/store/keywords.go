package store

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"

	"gopkg.in/yaml.v3"
)

// FindConfigFile looks for a configuration file in the usual locations: the
// path as given, ./config, ./database and ~/.config/expense-import.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "expense-import", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadKeywordTable reads an ordered keyword table from YAML. A missing file
// is not an error: it returns nil so callers keep the built-in table.
//
// The document is either `rules: [...]` with an optional `tags: [...]`, or a
// bare list of rules. Keywords are normalized on load so they compare against
// normalized draft text.
func LoadKeywordTable(filename string, logger logging.Logger) (*models.KeywordTable, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if filename == "" {
		return nil, nil
	}

	path, err := FindConfigFile(filename)
	if err != nil {
		logger.Warn("Keyword file not found, using built-in table", logging.F(logging.FieldFile, filename))
		return nil, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-configured path
	if err != nil {
		return nil, fmt.Errorf("error reading keyword file: %w", err)
	}

	var table models.KeywordTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		var rules []models.KeywordRule
		if listErr := yaml.Unmarshal(data, &rules); listErr != nil {
			return nil, fmt.Errorf("error parsing keyword file %s: %w", path, err)
		}
		table.Rules = rules
	}

	cleaned := table.Rules[:0]
	for _, rule := range table.Rules {
		if rule.Category == "" {
			logger.Warn("Skipping keyword rule without category", logging.F(logging.FieldFile, path))
			continue
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if n := textutils.Normalize(kw); n != "" {
				keywords = append(keywords, n)
			}
		}
		rule.Keywords = keywords
		cleaned = append(cleaned, rule)
	}
	table.Rules = cleaned

	tags := table.Tags[:0]
	for _, tag := range table.Tags {
		tag.Keyword = textutils.Normalize(tag.Keyword)
		if tag.Keyword == "" || tag.Tag == "" {
			logger.Warn("Skipping incomplete tag rule", logging.F(logging.FieldFile, path))
			continue
		}
		tags = append(tags, tag)
	}
	table.Tags = tags

	logger.Debug("Loaded keyword table",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(table.Rules)),
		logging.F("tags", len(table.Tags)))
	return &table, nil
}
