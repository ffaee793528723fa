package intel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeed_YAML(t *testing.T) {
	data := []byte(`
high_risk_ips:
  - 203.0.113.5
malicious_domains:
  - malware.example.com
suspicious_keywords:
  - ransomware
  - credential dump
`)

	update, err := ParseFeed("feed.yaml", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.5"}, update.HighRiskIPs)
	assert.Equal(t, []string{"malware.example.com"}, update.MaliciousDomains)
	assert.Len(t, update.SuspiciousKeywords, 2)
}

func TestParseFeed_JSON(t *testing.T) {
	data := []byte(`{"malicious_domains": ["evil.test"], "high_risk_ips": ["198.51.100.7"]}`)

	update, err := ParseFeed("feed.json", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.test"}, update.MaliciousDomains)
	assert.Equal(t, []string{"198.51.100.7"}, update.HighRiskIPs)
}

func TestParseFeed_JSONRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"malicious_domains": ["evil.test"], "allow_list": ["ok.test"]}`)

	_, err := ParseFeed("feed.json", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestParseFeed_JSONRejectsWrongTypes(t *testing.T) {
	data := []byte(`{"high_risk_ips": "203.0.113.5"}`)

	_, err := ParseFeed("feed.json", data)
	require.Error(t, err)
}

func TestParseFeed_InvalidYAML(t *testing.T) {
	_, err := ParseFeed("feed.yaml", []byte("high_risk_ips: [unclosed"))
	require.Error(t, err)
}

func TestLoadFeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.yml")
	require.NoError(t, os.WriteFile(path, []byte("malicious_domains:\n  - evil.test\n"), 0600))

	update, err := LoadFeedFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.test"}, update.MaliciousDomains)

	_, err = LoadFeedFile(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
}

func TestSnapshot_MatchKeywordExact(t *testing.T) {
	snap := NewSnapshot(nil, nil, []string{"phishing"}, 1)

	keyword, ok := snap.MatchKeyword("PHISHING")
	assert.True(t, ok)
	assert.Equal(t, "phishing", keyword)

	_, ok = snap.MatchKeyword("benign text")
	assert.False(t, ok)
}
