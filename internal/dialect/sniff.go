package dialect

import (
	"bytes"
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// SampleSize is the number of leading bytes inspected when sniffing a file.
const SampleSize = 1024

var (
	// ErrNotText is returned when a sample is empty, binary or not UTF-8.
	ErrNotText = errors.New("sample is not delimited text")
	// ErrUndetermined is returned when no delimiter can be inferred from a sample.
	ErrUndetermined = errors.New("could not determine delimiter")
)

// preferred breaks ties between equally consistent delimiter candidates.
var preferred = []rune{',', '\t', ';', ' ', ':'}

// Sniffed holds the dialect fields a sniff was able to determine. The escape
// character is never inferred, so applying a Sniffed keeps the configured one.
type Sniffed struct {
	Delimiter        rune
	QuoteChar        rune
	DoubleQuote      bool
	SkipInitialSpace bool
	Quoting          Quoting
}

// Apply overwrites the sniffed fields of base and returns the result.
func (s Sniffed) Apply(base Dialect) Dialect {
	base.Delimiter = s.Delimiter
	base.QuoteChar = s.QuoteChar
	base.DoubleQuote = s.DoubleQuote
	base.SkipInitialSpace = s.SkipInitialSpace
	base.Quoting = s.Quoting
	return base
}

// Settings returns only the configuration keys the sniff determined.
func (s Sniffed) Settings() map[string]any {
	return map[string]any{
		KeyDelimiter:        charString(s.Delimiter),
		KeyQuoteChar:        charString(s.QuoteChar),
		KeyDoubleQuote:      s.DoubleQuote,
		KeySkipInitialSpace: s.SkipInitialSpace,
		KeyQuoting:          s.Quoting.String(),
	}
}

// Sniff infers a dialect from the leading bytes of a file. Only the first
// SampleSize bytes are considered.
func Sniff(sample []byte) (Sniffed, error) {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	text, err := sampleText(sample)
	if err != nil {
		return Sniffed{}, err
	}

	quote, doubleQuote, delim, skip := guessQuoteAndDelimiter(text)
	if delim == 0 {
		delim, skip = guessDelimiter(text)
	}
	if delim == 0 {
		return Sniffed{}, ErrUndetermined
	}
	if quote == 0 {
		quote = '"'
	}
	return Sniffed{
		Delimiter:        delim,
		QuoteChar:        quote,
		DoubleQuote:      doubleQuote,
		SkipInitialSpace: skip,
		Quoting:          QuoteMinimal,
	}, nil
}

func sampleText(sample []byte) (string, error) {
	if len(bytes.TrimSpace(sample)) == 0 || bytes.IndexByte(sample, 0) >= 0 {
		return "", ErrNotText
	}
	// The sample may end in the middle of a multi-byte rune.
	for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(sample); i++ {
		sample = sample[:len(sample)-1]
	}
	if !utf8.Valid(sample) {
		return "", ErrNotText
	}
	text := strings.ReplaceAll(string(sample), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// quotedPatterns look for quoted fields framed by delimiters, from the most
// to the least specific. QUOTE is replaced by the quote character under test.
var quotedPatterns = []struct {
	expr       string
	delim      int // submatch index of the delimiter, 0 if absent
	closeDelim int // submatch index that must equal delim, 0 if absent
	space      int
}{
	{`([^\w\n"'])( ?)QUOTE.*?QUOTE([^\w\n"'])`, 1, 3, 2},
	{`(?:^|\n)QUOTE.*?QUOTE([^\w\n"'])( ?)`, 1, 0, 2},
	{`([^\w\n"'])( ?)QUOTE.*?QUOTE(?:$|\n)`, 1, 0, 2},
	{`(?:^|\n)QUOTE.*?QUOTE(?:$|\n)`, 0, 0, 0},
}

// counter counts keys and remembers first-seen order for tie breaks.
type counter struct {
	n     map[rune]int
	order []rune
}

func (c *counter) add(r rune) {
	if c.n == nil {
		c.n = make(map[rune]int)
	}
	if _, ok := c.n[r]; !ok {
		c.order = append(c.order, r)
	}
	c.n[r]++
}

func (c *counter) max() (rune, int) {
	var best rune
	bestN := 0
	for _, r := range c.order {
		if c.n[r] > bestN {
			best, bestN = r, c.n[r]
		}
	}
	return best, bestN
}

func guessQuoteAndDelimiter(text string) (quote rune, doubleQuote bool, delim rune, skip bool) {
	var quotes, delims counter
	spaces := 0
	for _, p := range quotedPatterns {
		matched := false
		for _, q := range []rune{'"', '\''} {
			re := regexp.MustCompile(`(?sm)` + strings.ReplaceAll(p.expr, "QUOTE", regexp.QuoteMeta(string(q))))
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if p.closeDelim > 0 && m[p.closeDelim] != m[p.delim] {
					continue
				}
				matched = true
				quotes.add(q)
				if p.delim == 0 {
					continue
				}
				if d, _ := utf8.DecodeRuneInString(m[p.delim]); m[p.delim] != "" {
					delims.add(d)
				}
				if m[p.space] != "" {
					spaces++
				}
			}
		}
		if matched {
			break
		}
	}
	if len(quotes.order) == 0 {
		return 0, false, 0, false
	}
	quote, _ = quotes.max()
	if len(delims.order) > 0 {
		var n int
		delim, n = delims.max()
		skip = n == spaces
	}
	return quote, hasDoubledQuote(text, quote, delim), delim, skip
}

func hasDoubledQuote(text string, quote, delim rune) bool {
	q := regexp.QuoteMeta(string(quote))
	d := ""
	notDelim := `[^\n]`
	if delim != 0 {
		d = regexp.QuoteMeta(string(delim))
		notDelim = `[^` + d + `\n]`
	}
	expr := `(?m)((` + d + `)|^)\W*` + q + notDelim + `*` + q + notDelim + `*` + q + `\W*((` + d + `)|$)`
	return regexp.MustCompile(expr).MatchString(text)
}

type mode struct {
	freq  int
	count int
}

// freqTable counts, for one character, how many lines contain it n times.
type freqTable struct {
	lines map[int]int
	order []int
}

func (t *freqTable) add(freq int) {
	if t.lines == nil {
		t.lines = make(map[int]int)
	}
	if _, ok := t.lines[freq]; !ok {
		t.order = append(t.order, freq)
	}
	t.lines[freq]++
}

// mode returns the most common frequency, its weight reduced by the number
// of lines that disagree with it.
func (t *freqTable) mode() (mode, bool) {
	if len(t.order) == 1 {
		f := t.order[0]
		return mode{f, t.lines[f]}, f != 0
	}
	best := mode{}
	for _, f := range t.order {
		if t.lines[f] > best.count {
			best = mode{f, t.lines[f]}
		}
	}
	others := 0
	for _, f := range t.order {
		if f != best.freq {
			others += t.lines[f]
		}
	}
	best.count -= others
	return best, true
}

func guessDelimiter(text string) (rune, bool) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return 0, false
	}
	skipFor := func(d rune) bool {
		return strings.Count(lines[0], string(d)) == strings.Count(lines[0], string(d)+" ")
	}

	chunk := min(10, len(lines))
	tables := make(map[rune]*freqTable)
	modes := make(map[rune]mode)
	delims := make(map[rune]mode)
	iteration := 0
	for start, end := 0, chunk; start < len(lines); start, end = end, end+chunk {
		iteration++
		for _, line := range lines[start:min(end, len(lines))] {
			for c := rune(1); c < 127; c++ {
				t := tables[c]
				if t == nil {
					t = &freqTable{}
					tables[c] = t
				}
				t.add(strings.Count(line, string(c)))
			}
		}
		for c, t := range tables {
			if m, ok := t.mode(); ok {
				modes[c] = m
			}
		}
		total := float64(min(chunk*iteration, len(lines)))
		for consistency := 1.0; len(delims) == 0 && consistency >= 0.9; consistency -= 0.01 {
			for c, m := range modes {
				if m.freq > 0 && m.count > 0 && float64(m.count)/total >= consistency {
					delims[c] = m
				}
			}
		}
		if len(delims) == 1 {
			for c := range delims {
				return c, skipFor(c)
			}
		}
	}
	if len(delims) == 0 {
		return 0, false
	}
	for _, p := range preferred {
		if _, ok := delims[p]; ok {
			return p, skipFor(p)
		}
	}
	cands := make([]rune, 0, len(delims))
	for c := range delims {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := delims[cands[i]], delims[cands[j]]
		if a.freq != b.freq {
			return a.freq < b.freq
		}
		if a.count != b.count {
			return a.count < b.count
		}
		return cands[i] < cands[j]
	})
	best := cands[len(cands)-1]
	return best, skipFor(best)
}
