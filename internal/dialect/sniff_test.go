package dialect

import (
	"errors"
	"strings"
	"testing"
)

func TestSniffDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  rune
		skip  bool
	}{
		{"comma", "sample,class,m1,m2\ns1,A,1.0,2.0\ns2,B,3.0,4.0\n", ',', false},
		{"semicolon", "sample;class;m1\ns1;A;1,5\ns2;B;2,5\ns3;A;0,1\n", ';', false},
		{"tab", "sample\tclass\tGlucose\ns1\tA\t1\ns2\tB\t2\n", '\t', false},
		{"comma with spaces", "sample, class, m1\ns1, A, 1\ns2, B, 2\n", ',', true},
		{"crlf", "sample|class|m1\r\ns1|A|1\r\ns2|B|2\r\n", '|', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff([]byte(tt.input))
			if err != nil {
				t.Fatalf("sniff: %v", err)
			}
			if got.Delimiter != tt.want {
				t.Fatalf("delimiter = %q, want %q", got.Delimiter, tt.want)
			}
			if got.SkipInitialSpace != tt.skip {
				t.Fatalf("skipinitialspace = %v, want %v", got.SkipInitialSpace, tt.skip)
			}
			if got.QuoteChar != '"' || got.Quoting != QuoteMinimal {
				t.Fatalf("unexpected quote settings: %+v", got)
			}
		})
	}
}

func TestSniffQuotedFields(t *testing.T) {
	in := "'sample';'class';'m1'\n's1';'A';'1'\n's2';'B';'2'\n"
	got, err := Sniff([]byte(in))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if got.QuoteChar != '\'' {
		t.Fatalf("quotechar = %q, want '", got.QuoteChar)
	}
	if got.Delimiter != ';' {
		t.Fatalf("delimiter = %q, want ;", got.Delimiter)
	}
}

func TestSniffDoubleQuote(t *testing.T) {
	in := "id,note\n1,\"He said \"\"no\"\"\"\n2,\"plain\"\n"
	got, err := Sniff([]byte(in))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if got.Delimiter != ',' || !got.DoubleQuote {
		t.Fatalf("expected comma with doublequote, got %+v", got)
	}
}

func TestSniffFailures(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty", nil, ErrNotText},
		{"whitespace", []byte("  \n\n"), ErrNotText},
		{"binary", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02}, ErrNotText},
		{"invalid utf8", []byte("a,b\n\xff\xfe,c\n"), ErrNotText},
		{"single column", []byte("a\nb\nc\n"), ErrUndetermined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Sniff(tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSniffOnlyInspectsSample(t *testing.T) {
	head := "sample,class,m1\n" + strings.Repeat("s,A,1\n", SampleSize/6+1)
	// Binary garbage past the sample window must not matter.
	in := append([]byte(head), 0x00, 0xff)
	got, err := Sniff(in)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if got.Delimiter != ',' {
		t.Fatalf("delimiter = %q, want ,", got.Delimiter)
	}
}

func TestSniffedApplyKeepsEscape(t *testing.T) {
	base := Default()
	base.EscapeChar = '\\'
	s := Sniffed{Delimiter: ';', QuoteChar: '\'', DoubleQuote: false, Quoting: QuoteMinimal}
	d := s.Apply(base)
	if d.EscapeChar != '\\' {
		t.Fatalf("escape char overwritten: %q", d.EscapeChar)
	}
	if d.Delimiter != ';' || d.QuoteChar != '\'' || d.DoubleQuote {
		t.Fatalf("sniffed fields not applied: %+v", d)
	}
	if _, ok := s.Settings()[KeyEscapeChar]; ok {
		t.Fatalf("escapechar must not be part of sniffed settings")
	}
}
