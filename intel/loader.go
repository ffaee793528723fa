package intel

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// feedSchema validates JSON feed files before they are merged into the
// active snapshot. Malformed feeds are rejected as a whole so a bad file
// can never partially poison the indicator sets.
const feedSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"high_risk_ips":        {"type": "array", "items": {"type": "string", "minLength": 1}},
		"malicious_domains":    {"type": "array", "items": {"type": "string", "minLength": 1}},
		"suspicious_keywords":  {"type": "array", "items": {"type": "string", "minLength": 1}}
	}
}`

// LoadFeedFile parses a threat intelligence feed file into an Update.
// YAML files (.yaml/.yml) are parsed directly; anything else is treated as
// JSON and validated against the feed schema first.
func LoadFeedFile(path string) (Update, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Update{}, fmt.Errorf("failed to read feed file: %w", err)
	}
	return ParseFeed(path, data)
}

// ParseFeed parses feed file contents, using the filename to select the
// format.
func ParseFeed(filename string, data []byte) (Update, error) {
	var update Update

	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		if err := yaml.Unmarshal(data, &update); err != nil {
			return Update{}, fmt.Errorf("failed to parse YAML feed %s: %w", filename, err)
		}
		return update, nil
	}

	schemaLoader := gojsonschema.NewStringLoader(feedSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return Update{}, fmt.Errorf("failed to validate feed %s against schema: %w", filename, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return Update{}, fmt.Errorf("feed %s validation failed: %s", filename, strings.Join(errs, "; "))
	}

	if err := yaml.Unmarshal(data, &update); err != nil {
		return Update{}, fmt.Errorf("failed to parse JSON feed %s: %w", filename, err)
	}
	return update, nil
}
