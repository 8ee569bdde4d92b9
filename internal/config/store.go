package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/textio"
)

// ErrUnknownKey is returned for keys that are not configuration settings.
var ErrUnknownKey = errors.New("unknown config key")

// Keys not shared with the dialect package.
const (
	KeyStrictNumeric = "strict_numeric"
	KeyEncoding      = "encoding"
	KeyOutputFormat  = "output_format"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
)

// OutputFormats lists the accepted output_format values.
var OutputFormats = []string{"summary", "json", "yaml", "csv", "parquet"}

type field struct {
	get func(*Global) any
	set func(*Global, any) error
}

var fields = map[string]field{
	dialect.KeyAutodetect: boolField(func(c *Global) *bool { return &c.AutodetectFormat }),
	dialect.KeyDelimiter: {
		get: func(c *Global) any { return c.Delimiter },
		set: charSetter(func(c *Global) *string { return &c.Delimiter }, false),
	},
	dialect.KeyQuoteChar: {
		get: func(c *Global) any { return c.QuoteChar },
		set: charSetter(func(c *Global) *string { return &c.QuoteChar }, false),
	},
	dialect.KeyEscapeChar: {
		get: func(c *Global) any { return c.EscapeChar },
		set: charSetter(func(c *Global) *string { return &c.EscapeChar }, true),
	},
	dialect.KeyDoubleQuote:      boolField(func(c *Global) *bool { return &c.DoubleQuote }),
	dialect.KeySkipInitialSpace: boolField(func(c *Global) *bool { return &c.SkipInitialSpace }),
	dialect.KeyQuoting: {
		get: func(c *Global) any { return c.Quoting },
		set: func(c *Global, v any) error {
			q, err := dialect.ParseQuoting(cast.ToString(v))
			if err != nil {
				return err
			}
			c.Quoting = q.String()
			return nil
		},
	},
	KeyStrictNumeric: boolField(func(c *Global) *bool { return &c.StrictNumeric }),
	KeyEncoding: {
		get: func(c *Global) any { return c.Encoding },
		set: func(c *Global, v any) error {
			s := cast.ToString(v)
			if _, err := textio.Lookup(s); err != nil {
				return err
			}
			c.Encoding = s
			return nil
		},
	},
	KeyOutputFormat: enumField(func(c *Global) *string { return &c.OutputFormat }, OutputFormats...),
	KeyLogLevel:     enumField(func(c *Global) *string { return &c.LogLevel }, "debug", "info", "warn", "error"),
	KeyLogFormat:    enumField(func(c *Global) *string { return &c.LogFormat }, "text", "json"),
}

func boolField(ptr func(*Global) *bool) field {
	return field{
		get: func(c *Global) any { return *ptr(c) },
		set: func(c *Global, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return fmt.Errorf("invalid bool %v", v)
			}
			*ptr(c) = b
			return nil
		},
	}
}

func enumField(ptr func(*Global) *string, allowed ...string) field {
	return field{
		get: func(c *Global) any { return *ptr(c) },
		set: func(c *Global, v any) error {
			s := strings.ToLower(cast.ToString(v))
			for _, a := range allowed {
				if s == a {
					*ptr(c) = s
					return nil
				}
			}
			return fmt.Errorf("invalid value %q (use %s)", s, strings.Join(allowed, ", "))
		},
	}
}

// charSetter validates a single-character setting and stores the character
// itself, so "tab" is saved as a literal tab.
func charSetter(ptr func(*Global) *string, allowEmpty bool) func(*Global, any) error {
	return func(c *Global, v any) error {
		r, err := dialect.ParseChar(cast.ToString(v))
		if err != nil {
			return err
		}
		if r == 0 {
			if !allowEmpty {
				return errors.New("value must not be empty")
			}
			*ptr(c) = ""
			return nil
		}
		*ptr(c) = string(r)
		return nil
	}
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is a persisted, concurrency-safe view of a Global. Every successful
// write is saved to the config file before returning.
type Store struct {
	mu      sync.Mutex
	cfg     *Global
	cfgFile string
}

// NewStore wraps c; writes go to cfgFile (see Save for the default).
func NewStore(c *Global, cfgFile string) *Store {
	return &Store{cfg: c, cfgFile: cfgFile}
}

// Get returns the value of key.
func (s *Store) Get(key string) (any, bool) {
	f, ok := fields[key]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.get(s.cfg), true
}

// Set validates and stores a single value.
func (s *Store) Set(key string, value any) error {
	return s.SetMany(map[string]any{key: value})
}

// SetMany validates all values, applies them together and saves. Nothing
// changes if any value is rejected.
func (s *Store) SetMany(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.cfg
	for key, v := range values {
		f, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if err := f.set(&next, v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if err := Save(&next, s.cfgFile); err != nil {
		return err
	}
	*s.cfg = next
	return nil
}

// Dialect returns the configured dialect.
func (s *Store) Dialect() (dialect.Dialect, error) {
	return dialect.FromStore(s)
}
