package dialect

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Quoting selects how quote characters are treated while reading records.
type Quoting int

const (
	QuoteMinimal Quoting = iota
	QuoteAll
	QuoteNonNumeric
	QuoteNone
)

var quotingNames = map[Quoting]string{
	QuoteAll:        "All",
	QuoteMinimal:    "Minimal",
	QuoteNonNumeric: "Non-numeric",
	QuoteNone:       "None",
}

func (q Quoting) String() string {
	if s, ok := quotingNames[q]; ok {
		return s
	}
	return fmt.Sprintf("Quoting(%d)", int(q))
}

// ParseQuoting accepts the display names (All, Minimal, Non-numeric, None),
// case-insensitively, as well as the legacy numeric codes 0-3.
func ParseQuoting(s string) (Quoting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "1":
		return QuoteAll, nil
	case "minimal", "0", "":
		return QuoteMinimal, nil
	case "non-numeric", "nonnumeric", "2":
		return QuoteNonNumeric, nil
	case "none", "3":
		return QuoteNone, nil
	}
	return QuoteMinimal, fmt.Errorf("%w: unknown quoting %q (use All|Minimal|Non-numeric|None)", ErrInvalidDialect, s)
}

// ErrInvalidDialect is returned for dialect settings that cannot be used to read a file.
var ErrInvalidDialect = errors.New("invalid dialect")

// Dialect is the set of syntax parameters used to split a delimited text file
// into records. EscapeChar is 0 when no escape character is configured.
type Dialect struct {
	Delimiter        rune
	QuoteChar        rune
	Quoting          Quoting
	DoubleQuote      bool
	EscapeChar       rune
	SkipInitialSpace bool
}

// Default returns the spreadsheet-compatible dialect used when nothing else is configured.
func Default() Dialect {
	return Dialect{
		Delimiter:   ',',
		QuoteChar:   '"',
		Quoting:     QuoteMinimal,
		DoubleQuote: true,
	}
}

// Validate reports whether the dialect can be used by a Reader.
func (d Dialect) Validate() error {
	if d.Delimiter == 0 {
		return fmt.Errorf("%w: delimiter is empty", ErrInvalidDialect)
	}
	if isLineBreak(d.Delimiter) || d.Delimiter == utf8.RuneError {
		return fmt.Errorf("%w: delimiter %q", ErrInvalidDialect, d.Delimiter)
	}
	if d.Quoting != QuoteNone && d.QuoteChar == d.Delimiter {
		return fmt.Errorf("%w: delimiter and quotechar are both %q", ErrInvalidDialect, d.Delimiter)
	}
	if d.EscapeChar != 0 && d.EscapeChar == d.Delimiter {
		return fmt.Errorf("%w: delimiter and escapechar are both %q", ErrInvalidDialect, d.Delimiter)
	}
	if isLineBreak(d.QuoteChar) || isLineBreak(d.EscapeChar) {
		return fmt.Errorf("%w: quote and escape characters cannot be line breaks", ErrInvalidDialect)
	}
	return nil
}

func (d Dialect) String() string {
	return fmt.Sprintf("delimiter=%s quotechar=%s quoting=%s doublequote=%t escapechar=%s skipinitialspace=%t",
		FormatChar(d.Delimiter), FormatChar(d.QuoteChar), d.Quoting, d.DoubleQuote, FormatChar(d.EscapeChar), d.SkipInitialSpace)
}

// Settings returns the dialect as configuration key/value pairs.
func (d Dialect) Settings() map[string]any {
	return map[string]any{
		KeyDelimiter:        charString(d.Delimiter),
		KeyQuoteChar:        charString(d.QuoteChar),
		KeyQuoting:          d.Quoting.String(),
		KeyDoubleQuote:      d.DoubleQuote,
		KeyEscapeChar:       charString(d.EscapeChar),
		KeySkipInitialSpace: d.SkipInitialSpace,
	}
}

// ParseChar converts a configured single-character setting to a rune.
// The empty string maps to 0. "tab", "\t" (escaped) and "space" are accepted
// as names for the corresponding whitespace characters.
func ParseChar(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrInvalidDialect, s)
	}
	return r, nil
}

// FormatChar renders a dialect character for display.
func FormatChar(r rune) string {
	switch r {
	case 0:
		return "(none)"
	case '\t':
		return "tab"
	case ' ':
		return "space"
	}
	return string(r)
}

func charString(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

func isLineBreak(r rune) bool { return r == '\n' || r == '\r' }
