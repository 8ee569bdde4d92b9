package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.True(t, c.AutodetectFormat)
	assert.Equal(t, ",", c.Delimiter)
	assert.Equal(t, `"`, c.QuoteChar)
	assert.True(t, c.DoubleQuote)
	assert.Equal(t, "", c.EscapeChar)
	assert.Equal(t, "Minimal", c.Quoting)
	assert.False(t, c.SkipInitialSpace)
	assert.Equal(t, "summary", c.OutputFormat)
	assert.Equal(t, "info", c.LogLevel)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	c, err := Load(p)
	require.NoError(t, err)
	c.Delimiter = "\t"
	c.Quoting = "None"
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "\t", got.Delimiter)
	assert.Equal(t, "None", got.Quoting)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TABIMPORT_DELIMITER", ";")
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ";", c.Delimiter)
}

func TestStoreSetManyPersists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(p)
	require.NoError(t, err)
	s := NewStore(c, p)

	require.NoError(t, s.SetMany(map[string]any{
		dialect.KeyDelimiter:   "tab",
		dialect.KeyQuoting:     "non-numeric",
		dialect.KeyDoubleQuote: "false",
		dialect.KeyEscapeChar:  `\`,
	}))

	v, ok := s.Get(dialect.KeyDelimiter)
	require.True(t, ok)
	assert.Equal(t, "\t", v)

	reloaded, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "\t", reloaded.Delimiter)
	assert.Equal(t, "Non-numeric", reloaded.Quoting)
	assert.False(t, reloaded.DoubleQuote)
	assert.Equal(t, `\`, reloaded.EscapeChar)

	d, err := NewStore(reloaded, p).Dialect()
	require.NoError(t, err)
	assert.Equal(t, '\t', d.Delimiter)
	assert.Equal(t, dialect.QuoteNonNumeric, d.Quoting)
	assert.Equal(t, '\\', d.EscapeChar)
}

func TestStoreRejectsInvalidValuesAtomically(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(p)
	require.NoError(t, err)
	s := NewStore(c, p)

	err = s.SetMany(map[string]any{dialect.KeyDelimiter: ";", dialect.KeyQuoteChar: "ab"})
	assert.ErrorIs(t, err, dialect.ErrInvalidDialect)
	assert.Equal(t, ",", c.Delimiter)
	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written")

	assert.True(t, errors.Is(s.Set("colour", "blue"), ErrUnknownKey))
	assert.Error(t, s.Set(KeyOutputFormat, "xml"))
	assert.Error(t, s.Set(KeyEncoding, "nope-42"))
	assert.Error(t, s.Set(dialect.KeyAutodetect, "perhaps"))
	assert.Error(t, s.Set(dialect.KeyDelimiter, ""))
	require.NoError(t, s.Set(dialect.KeyEscapeChar, ""))
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore(&Global{}, "")
	_, ok := s.Get("nope")
	assert.False(t, ok)
	assert.Contains(t, Keys(), dialect.KeyAutodetect)
	assert.Len(t, Keys(), 12)
}
