package dialect

import (
	"context"
	"fmt"
	"io"

	"github.com/KaramelBytes/tabimport-cli/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// Configuration keys shared by the dialect settings and the config store.
const (
	KeyAutodetect       = "autodetect_format"
	KeyDelimiter        = "delimiter"
	KeyQuoteChar        = "quotechar"
	KeyDoubleQuote      = "doublequote"
	KeyEscapeChar       = "escapechar"
	KeyQuoting          = "quoting"
	KeySkipInitialSpace = "skipinitialspace"
)

// ConfigStore is the persisted settings store the resolver reads from and
// writes detected settings back to.
type ConfigStore interface {
	Get(key string) (any, bool)
	SetMany(values map[string]any) error
}

// FromStore builds a Dialect from the stored settings. Missing keys keep the
// Default() values; an empty delimiter or quote character falls back as well.
// A nil store yields Default().
func FromStore(store ConfigStore) (Dialect, error) {
	d := Default()
	if store == nil {
		return d, nil
	}
	if v, ok := store.Get(KeyDelimiter); ok {
		r, err := charSetting(KeyDelimiter, v)
		if err != nil {
			return d, err
		}
		if r != 0 {
			d.Delimiter = r
		}
	}
	if v, ok := store.Get(KeyQuoteChar); ok {
		r, err := charSetting(KeyQuoteChar, v)
		if err != nil {
			return d, err
		}
		if r != 0 {
			d.QuoteChar = r
		}
	}
	if v, ok := store.Get(KeyEscapeChar); ok {
		r, err := charSetting(KeyEscapeChar, v)
		if err != nil {
			return d, err
		}
		d.EscapeChar = r
	}
	if v, ok := store.Get(KeyQuoting); ok {
		q, err := ParseQuoting(cast.ToString(v))
		if err != nil {
			return d, err
		}
		d.Quoting = q
	}
	if v, ok := store.Get(KeyDoubleQuote); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return d, fmt.Errorf("%w: %s: %v", ErrInvalidDialect, KeyDoubleQuote, err)
		}
		d.DoubleQuote = b
	}
	if v, ok := store.Get(KeySkipInitialSpace); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return d, fmt.Errorf("%w: %s: %v", ErrInvalidDialect, KeySkipInitialSpace, err)
		}
		d.SkipInitialSpace = b
	}
	return d, nil
}

func charSetting(key string, v any) (rune, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidDialect, key, err)
	}
	r, err := ParseChar(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return r, nil
}

// Resolver produces the dialect used to import a file.
type Resolver struct {
	Fs    afero.Fs
	Store ConfigStore
	// Decode, if set, wraps the raw file before the sample is taken.
	Decode func(io.Reader) io.Reader
}

// Resolve returns the configured dialect, or, when autodetect is set, the
// configured dialect overlaid with whatever Sniff determines from the first
// SampleSize bytes of path. Sniff failures are not errors: the configured
// dialect is used as is. Detected settings are written back to the store.
func (r Resolver) Resolve(ctx context.Context, path string, autodetect bool) (Dialect, error) {
	base, err := FromStore(r.Store)
	if err != nil {
		return base, err
	}
	if !autodetect {
		return base, nil
	}
	log := logging.FromContext(ctx)
	sniffed, err := r.sniffFile(path)
	if err != nil {
		log.Debug("dialect autodetect failed; using configured dialect", "path", path, "error", err)
		return base, nil
	}
	d := sniffed.Apply(base)
	if err := d.Validate(); err != nil {
		log.Debug("detected dialect unusable; using configured dialect", "path", path, "error", err)
		return base, nil
	}
	if r.Store != nil {
		if err := r.Store.SetMany(sniffed.Settings()); err != nil {
			log.Warn("could not persist detected dialect", "error", err)
		}
	}
	log.Debug("dialect detected", "path", path, "dialect", d.String())
	return d, nil
}

func (r Resolver) sniffFile(path string) (Sniffed, error) {
	f, err := r.Fs.Open(path)
	if err != nil {
		return Sniffed{}, fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()
	var src io.Reader = f
	if r.Decode != nil {
		src = r.Decode(src)
	}
	sample, err := io.ReadAll(io.LimitReader(src, SampleSize))
	if err != nil {
		return Sniffed{}, fmt.Errorf("read sample: %w", err)
	}
	return Sniff(sample)
}
