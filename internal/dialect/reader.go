package dialect

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Reader splits delimited text into records according to a Dialect.
// Blank lines produce no record. Read returns io.EOF after the last record.
//
// A closing quote followed by other characters ends the quoted part only;
// the rest is appended to the same field, so `"ab"c,d` reads as abc and d.
type Reader struct {
	lx lexer
}

// NewReader returns a Reader for r, or an error if d is not usable.
func NewReader(r io.Reader, d Dialect) (*Reader, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Reader{lx: lexer{br: bufio.NewReader(r), d: d}}, nil
}

// Read returns the next record.
func (r *Reader) Read() ([]string, error) {
	return r.lx.read()
}

type lexState int

const (
	startRecord lexState = iota
	startField
	escapedChar
	inField
	inQuotedField
	escapeInQuotedField
	quoteInQuotedField
)

type lexer struct {
	br    *bufio.Reader
	d     Dialect
	field strings.Builder
}

func (l *lexer) read() ([]string, error) {
	var record []string
	l.field.Reset()
	save := func() {
		record = append(record, l.field.String())
		l.field.Reset()
	}
	quoting := l.d.Quoting != QuoteNone
	st := startRecord
	for {
		c, _, err := l.br.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			if st == startRecord {
				return nil, io.EOF
			}
			// An unterminated quoted field is kept as read.
			save()
			return record, nil
		}
		if isLineBreak(c) && st != inQuotedField && st != escapeInQuotedField && st != escapedChar {
			if c == '\r' {
				l.skipLF()
			}
			if st == startRecord {
				continue
			}
			save()
			return record, nil
		}
		switch st {
		case startRecord, startField:
			switch {
			case quoting && c == l.d.QuoteChar:
				st = inQuotedField
			case l.d.EscapeChar != 0 && c == l.d.EscapeChar:
				st = escapedChar
			case c == ' ' && l.d.SkipInitialSpace:
				st = startField
			case c == l.d.Delimiter:
				save()
				st = startField
			default:
				l.field.WriteRune(c)
				st = inField
			}
		case escapedChar:
			l.field.WriteRune(c)
			st = inField
		case inField:
			switch {
			case l.d.EscapeChar != 0 && c == l.d.EscapeChar:
				st = escapedChar
			case c == l.d.Delimiter:
				save()
				st = startField
			default:
				l.field.WriteRune(c)
			}
		case inQuotedField:
			switch {
			case l.d.EscapeChar != 0 && c == l.d.EscapeChar:
				st = escapeInQuotedField
			case c == l.d.QuoteChar:
				if l.d.DoubleQuote {
					st = quoteInQuotedField
				} else {
					st = inField
				}
			default:
				l.field.WriteRune(c)
			}
		case escapeInQuotedField:
			l.field.WriteRune(c)
			st = inQuotedField
		case quoteInQuotedField:
			switch {
			case c == l.d.QuoteChar:
				l.field.WriteRune(c)
				st = inQuotedField
			case c == l.d.Delimiter:
				save()
				st = startField
			default:
				l.field.WriteRune(c)
				st = inField
			}
		}
	}
}

func (l *lexer) skipLF() {
	if b, err := l.br.Peek(1); err == nil && b[0] == '\n' {
		_, _ = l.br.ReadByte()
	}
}
