package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckFileName(t *testing.T) {
	if err := CheckFileName("prompts.csv"); err != nil {
		t.Fatalf("expected csv accepted, got %v", err)
	}
	for _, name := range []string{"prompts.txt", "prompts.CSV", "csv", ""} {
		if err := CheckFileName(name); !errors.Is(err, ErrNotCSV) {
			t.Fatalf("%q: expected ErrNotCSV, got %v", name, err)
		}
	}
}

func TestParse(t *testing.T) {
	input := "\ufeffPrompt , Ground_Truth\nfirst,one\n  ,skipped\n\"second, quoted\",\nthird\n"
	rows, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Prompt != "first" || rows[0].GroundTruth != "one" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Prompt != "second, quoted" || rows[1].GroundTruth != "" {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if rows[2].Prompt != "third" {
		t.Fatalf("unexpected third row %+v", rows[2])
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty input: %v", err)
	}
	if _, err := Parse(strings.NewReader("prompt\n \n")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("blank rows: %v", err)
	}
	if _, err := Parse(strings.NewReader("question\nwhat\n")); !errors.Is(err, ErrMissingPromptColumn) {
		t.Fatalf("missing column: %v", err)
	}
}

func TestCheckLimit(t *testing.T) {
	rows := make([]Row, MaxRows)
	if err := CheckLimit(rows); err != nil {
		t.Fatalf("expected %d rows accepted, got %v", MaxRows, err)
	}
	if err := CheckLimit(append(rows, Row{})); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestSampleCSVParses(t *testing.T) {
	rows, err := Parse(strings.NewReader(SampleCSV))
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(rows) != 3 || rows[0].GroundTruth == "" {
		t.Fatalf("unexpected sample rows: %+v", rows)
	}
}
