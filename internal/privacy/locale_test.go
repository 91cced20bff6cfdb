package privacy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexicon_EmptyPathReturnsDefaults(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLexicon(), lex)
}

func TestLoadLexicon_AppendsToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `cities:
  - Hyderabad
  - Sukkur
name_triggers:
  - mera naam
address_keywords:
  - mohalla
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	defaults := DefaultLexicon()
	assert.Len(t, lex.Cities, len(defaults.Cities)+2)
	assert.Contains(t, lex.Cities, "Sukkur")
	assert.Contains(t, lex.NameTriggers, "mera naam")
	assert.Contains(t, lex.AddressKeywords, "mohalla")
	// Defaults survive the merge.
	assert.Contains(t, lex.Cities, "Karachi")
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadLexicon_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cities: [unclosed"), 0o644))

	_, err := LoadLexicon(path)
	assert.Error(t, err)
}
