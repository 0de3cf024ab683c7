package services

import (
	"errors"
	"reflect"
	"testing"

	"renovationcost/testhelpers"
)

func TestParseSections_SurveyExport(t *testing.T) {
	sections, err := ParseSections([]byte(testhelpers.SurveyExport))
	if err != nil {
		t.Fatalf("ParseSections() error = %v", err)
	}

	wantKinds := []SectionKind{SectionTitle, SectionKeyValue, SectionTable, SectionTable, SectionFreeform}
	if len(sections) != len(wantKinds) {
		t.Fatalf("got %d sections, want %d", len(sections), len(wantKinds))
	}
	for i, s := range sections {
		if s.Kind != wantKinds[i] {
			t.Errorf("section %d kind = %v, want %v", i+1, s.Kind, wantKinds[i])
		}
		if s.Index != i+1 {
			t.Errorf("section %d index = %d", i+1, s.Index)
		}
	}

	if sections[0].Title != "Proyecto Casa Gómez" {
		t.Errorf("title = %q", sections[0].Title)
	}
	if v, ok := sections[1].Value("Nombre"); !ok || v != "Casa Gómez" {
		t.Errorf("Value(Nombre) = %q, %v; want trailing comma trimmed", v, ok)
	}
	if v, _ := sections[1].Value("Dirección"); v != "Calle 10 # 5-20" {
		t.Errorf("Value(Dirección) = %q", v)
	}

	rooms := sections[2].Table
	if len(rooms.Columns) != 5 || len(rooms.Rows) != 4 {
		t.Errorf("room table = %d columns, %d rows; want 5, 4", len(rooms.Columns), len(rooms.Rows))
	}
	if rooms.Rows[1][0] != "#Cocina" {
		t.Errorf("second room = %q, want #Cocina", rooms.Rows[1][0])
	}

	free := sections[4].Freeform
	if len(free) != 2 {
		t.Fatalf("freeform lines = %d, want 2", len(free))
	}
	if free[0].Text != "nota libre sin estructura" || free[0].Tokens != nil {
		t.Errorf("freeform line 0 = %+v", free[0])
	}
	if !reflect.DeepEqual(free[1].Tokens, []string{"otra línea", "con coma"}) {
		t.Errorf("freeform line 1 tokens = %q", free[1].Tokens)
	}
}

func TestParseSections_InvalidUTF8(t *testing.T) {
	sections, err := ParseSections([]byte{'a', 'b', 0xff, 'c'})
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("ParseSections() error = %v, want *EncodingError", err)
	}
	if encErr.Offset != 2 {
		t.Errorf("Offset = %d, want 2", encErr.Offset)
	}
	if sections != nil {
		t.Errorf("expected no sections, got %d", len(sections))
	}
}

func TestParseSections_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []SectionKind
	}{
		{"empty input", "", nil},
		{"only blank lines", "\n\n  \n", nil},
		{"byte order mark and CRLF", "\xEF\xBB\xBFReporte\r\n\r\nk: v\r\nk2: v2\r\n", []SectionKind{SectionTitle, SectionKeyValue}},
		{"whitespace-only separator line", "Uno\n   \nDos", []SectionKind{SectionTitle, SectionTitle}},
		{"several blank lines", "Uno\n\n\n\nDos", []SectionKind{SectionTitle, SectionTitle}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := ParseSections([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseSections() error = %v", err)
			}
			var kinds []SectionKind
			for _, s := range sections {
				kinds = append(kinds, s.Kind)
			}
			if !reflect.DeepEqual(kinds, tt.kinds) {
				t.Errorf("kinds = %v, want %v", kinds, tt.kinds)
			}
		})
	}

	sections, _ := ParseSections([]byte("\xEF\xBB\xBFReporte\r\n\r\nk: v"))
	if sections[0].Title != "Reporte" {
		t.Errorf("title = %q, want BOM stripped", sections[0].Title)
	}
}

func TestParseSections_KeyValueKeepsLaterColons(t *testing.T) {
	sections, err := ParseSections([]byte("Hora: 10:30\nLugar: Obra"))
	if err != nil {
		t.Fatalf("ParseSections() error = %v", err)
	}
	if v, _ := sections[0].Value("Hora"); v != "10:30" {
		t.Errorf("Value(Hora) = %q, want 10:30", v)
	}
	if _, ok := sections[0].Value("Fecha"); ok {
		t.Error("Value(Fecha) should be absent")
	}
}

func TestParseSections_TableRows(t *testing.T) {
	sections, err := ParseSections([]byte("a,b\n1,2\n1,2,3\n4"))
	if err != nil {
		t.Fatalf("ParseSections() error = %v", err)
	}
	if sections[0].Kind != SectionTable {
		t.Fatalf("kind = %v, want table", sections[0].Kind)
	}
	table := sections[0].Table
	want := [][]string{{"1", "2"}, {"4", ""}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("rows = %q, want %q", table.Rows, want)
	}
	if table.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", table.Skipped)
	}
	if table.ColumnIndex("b") != 1 || table.ColumnIndex("c") != -1 {
		t.Error("ColumnIndex mismatch")
	}
}

func TestSectionKey(t *testing.T) {
	s := Section{Index: 3}
	if got := s.Key(); got != "section_3" {
		t.Errorf("Key() = %q, want section_3", got)
	}
}
