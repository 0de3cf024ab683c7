package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// SectionKind classifies one blank-line-delimited block of a survey export.
type SectionKind int

const (
	SectionTitle SectionKind = iota
	SectionKeyValue
	SectionTable
	SectionFreeform
)

func (k SectionKind) String() string {
	switch k {
	case SectionTitle:
		return "title"
	case SectionKeyValue:
		return "key_value"
	case SectionTable:
		return "table"
	default:
		return "freeform"
	}
}

// KeyValue is one "key: value" line of a key-value section.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Table is a delimited section with a header row.
// Skipped counts data lines that could not be read as rows.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Skipped int        `json:"skipped"`
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FreeformLine is one line of an unstructured section. Lines containing a
// comma are split into Tokens; other lines keep their Text.
type FreeformLine struct {
	Index  int      `json:"index"`
	Text   string   `json:"text,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
}

// Section is one block of the survey export. Exactly one of Title, Pairs,
// Table or Freeform is populated, according to Kind.
type Section struct {
	Index    int            `json:"index"`
	Kind     SectionKind    `json:"kind"`
	Lines    []string       `json:"-"`
	Title    string         `json:"title,omitempty"`
	Pairs    []KeyValue     `json:"pairs,omitempty"`
	Table    *Table         `json:"table,omitempty"`
	Freeform []FreeformLine `json:"freeform,omitempty"`
}

// Key is the stable label of the section, used in extraction error entries.
func (s Section) Key() string {
	return fmt.Sprintf("section_%d", s.Index)
}

// Value returns the value for key in a key-value section.
func (s Section) Value(key string) (string, bool) {
	for _, kv := range s.Pairs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

var sectionBreak = regexp.MustCompile(`\n\s*\n+`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseSections splits a survey export into sections and classifies each one.
// Classification is tried in the order title, key-value, table, freeform and
// the first match wins. Only invalid UTF-8 fails the whole input.
func ParseSections(raw []byte) ([]Section, error) {
	if !utf8.Valid(raw) {
		return nil, &EncodingError{Offset: firstInvalidUTF8(raw)}
	}

	content := string(bytes.TrimPrefix(raw, utf8BOM))
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var sections []Section
	for _, block := range sectionBreak.Split(content, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		sections = append(sections, classifySection(len(sections)+1, strings.Split(block, "\n")))
	}
	return sections, nil
}

func classifySection(index int, lines []string) Section {
	s := Section{Index: index, Lines: lines}

	if len(lines) == 1 {
		s.Kind = SectionTitle
		s.Title = strings.TrimSpace(lines[0])
		return s
	}

	if pairs, ok := parseKeyValues(lines); ok {
		s.Kind = SectionKeyValue
		s.Pairs = pairs
		return s
	}

	if table, ok := parseTable(lines); ok {
		s.Kind = SectionTable
		s.Table = table
		return s
	}

	s.Kind = SectionFreeform
	s.Freeform = parseFreeform(lines)
	return s
}

// parseKeyValues accepts the block only when every non-empty line has a colon.
// The value keeps everything after the first colon.
func parseKeyValues(lines []string) ([]KeyValue, bool) {
	var pairs []KeyValue
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, false
		}
		pairs = append(pairs, KeyValue{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimRight(strings.TrimSpace(value), ","),
		})
	}
	return pairs, len(pairs) > 0
}

// parseTable reads the first line as the header and the rest as rows. A row
// that fails to parse or is wider than the header is skipped; narrower rows
// are padded. The block is rejected when the header is unreadable or no data
// row survives.
func parseTable(lines []string) (*Table, bool) {
	header, err := parseRecord(lines[0])
	if err != nil || len(header) == 0 {
		return nil, false
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Columns: header}
	for _, line := range lines[1:] {
		record, err := parseRecord(line)
		if err != nil || len(record) > len(header) {
			table.Skipped++
			continue
		}
		row := make([]string, len(header))
		for i, cell := range record {
			row[i] = strings.TrimSpace(cell)
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, false
	}
	return table, true
}

func parseRecord(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader.Read()
}

func parseFreeform(lines []string) []FreeformLine {
	out := make([]FreeformLine, 0, len(lines))
	for i, line := range lines {
		fl := FreeformLine{Index: i}
		if strings.Contains(line, ",") {
			for _, part := range strings.Split(line, ",") {
				fl.Tokens = append(fl.Tokens, strings.TrimSpace(part))
			}
		} else {
			fl.Text = strings.TrimSpace(line)
		}
		out = append(out, fl)
	}
	return out
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
