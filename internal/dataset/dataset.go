// Package dataset parses and checks the CSV files submitted for batch evaluation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxRows is the largest number of prompts a single job may hold.
const MaxRows = 12

var (
	ErrNotCSV              = errors.New("please upload a CSV file")
	ErrEmpty               = errors.New("CSV file contains no prompts")
	ErrMissingPromptColumn = errors.New("CSV file must have a 'prompt' column")
	ErrTooManyRows         = fmt.Errorf("maximum %d prompts allowed", MaxRows)
)

// SampleCSV is a ready-made dataset with the expected header.
const SampleCSV = `prompt,ground_truth
"Extract the invoice number, vendor, total amount and due date from this invoice: INV-2024-0117, Contoso Supplies, $4,250.00, due March 15, 2024.","Invoice INV-2024-0117 from Contoso Supplies, total $4,250.00, due 2024-03-15."
"Classify the sentiment of this customer post: 'The new update broke my sync again. Third time this month.'","Negative sentiment; complaint about a recurring sync bug after an update."
"Summarize this bug report in one sentence: App crashes on Android 14 when uploading photos larger than 10MB.","Android 14 app crash when uploading photos over 10MB."
`

// Row is one prompt to evaluate.
type Row struct {
	Prompt      string `json:"prompt"`
	GroundTruth string `json:"ground_truth,omitempty"`
}

// CheckFileName rejects names that do not end in ".csv".
func CheckFileName(name string) error {
	if !strings.HasSuffix(name, ".csv") {
		return ErrNotCSV
	}
	return nil
}

// Parse reads rows from a CSV with a required "prompt" column and an optional
// "ground_truth" column. Header names are matched case-insensitively and rows
// with a blank prompt are skipped.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	promptIdx, truthIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "prompt":
			promptIdx = i
		case "ground_truth":
			truthIdx = i
		}
	}
	if promptIdx < 0 {
		return nil, ErrMissingPromptColumn
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		if promptIdx >= len(record) {
			continue
		}
		prompt := strings.TrimSpace(record[promptIdx])
		if prompt == "" {
			continue
		}
		row := Row{Prompt: prompt}
		if truthIdx >= 0 && truthIdx < len(record) {
			row.GroundTruth = strings.TrimSpace(record[truthIdx])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

// CheckLimit enforces MaxRows.
func CheckLimit(rows []Row) error {
	if len(rows) > MaxRows {
		return ErrTooManyRows
	}
	return nil
}
