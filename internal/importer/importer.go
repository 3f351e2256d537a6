// Package importer reads vocabulary words from spreadsheets.
//
// Both .xlsx and .csv files use the same column layout:
//
//	A kanji | B kana | C meaning | D notes | E difficulty
//
// A first row naming the columns is skipped. Blank rows are ignored and rows
// that fail validation are reported without aborting the import.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"kotoba/internal/models"
	"kotoba/internal/validation"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv
var ErrUnsupportedFormat = errors.New("unsupported file format: use .xlsx or .csv")

// MaxRows bounds a single import
const MaxRows = 5000

const (
	colKanji = iota
	colKana
	colMeaning
	colNotes
	colDifficulty
)

// RowError describes a row that could not be imported
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result holds the parsed words and the rows that were rejected
type Result struct {
	Words  []models.VocabularyWord `json:"-"`
	Errors []RowError              `json:"errors"`
	Rows   int                     `json:"rows"`
}

// Parse reads words from r, choosing the format by filename extension
func Parse(filename string, r io.Reader) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	case ".csv":
		return ParseCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseXLSX reads the first sheet of an Excel workbook
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return parseRows(rows)
}

// ParseCSV reads comma separated rows
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Result, error) {
	result := &Result{}

	for i, row := range rows {
		rowNum := i + 1
		if i == 0 && isHeader(row) {
			continue
		}
		if isBlank(row) {
			continue
		}

		result.Rows++
		if result.Rows > MaxRows {
			return nil, fmt.Errorf("too many rows: at most %d words per import", MaxRows)
		}

		word, err := parseRow(row)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Words = append(result.Words, word)
	}

	return result, nil
}

func parseRow(row []string) (models.VocabularyWord, error) {
	word := models.VocabularyWord{
		Kanji:      cell(row, colKanji),
		Kana:       cell(row, colKana),
		Meaning:    cell(row, colMeaning),
		Notes:      cell(row, colNotes),
		Difficulty: validation.DefaultDifficulty,
	}

	if raw := cell(row, colDifficulty); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return word, fmt.Errorf("difficulty %q is not a number", raw)
		}
		word.Difficulty = d
	}

	if err := validation.ValidateWord(word.Kanji, word.Kana, word.Meaning, word.Notes, word.Difficulty); err != nil {
		return word, err
	}
	return word, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isHeader(row []string) bool {
	return strings.EqualFold(cell(row, colMeaning), "meaning") || strings.EqualFold(cell(row, colKanji), "kanji")
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
