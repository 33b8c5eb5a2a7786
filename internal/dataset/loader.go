// Package dataset imports call rosters from Excel or CSV files into pipeline
// work items. Column positions are auto-detected from header heuristics.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"voice-qa-go/internal/call"
)

// Load reads a roster file, dispatching on extension.
func Load(path string) ([]*call.Item, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadExcel(path)
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", path)
	}
}

// LoadExcel reads the first sheet of an Excel workbook.
func LoadExcel(path string) ([]*call.Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return fromRows(rows)
}

// LoadCSV reads a comma-separated roster.
func LoadCSV(path string) ([]*call.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return fromRows(rows)
}

// fromRows converts a header row plus data rows into items. Rows without a
// plausible audio URL are skipped quietly; ids are minted when the roster
// has no id column.
func fromRows(rows [][]string) ([]*call.Item, error) {
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	header := rows[0]

	audioIdx, idIdx := -1, -1
	metaIdx := map[int]string{}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "record") || strings.Contains(l, "url") ||
			(strings.Contains(l, "call") && strings.Contains(l, "link")):
			if audioIdx == -1 {
				audioIdx = i
			}
		case strings.Contains(l, "id"):
			if idIdx == -1 {
				idIdx = i
			}
		default:
			if l != "" {
				metaIdx[i] = l
			}
		}
	}
	if audioIdx == -1 {
		return nil, fmt.Errorf("no audio url column detected in header %v", header)
	}

	var out []*call.Item
	for _, r := range rows[1:] {
		audioURL := ""
		if audioIdx < len(r) {
			audioURL = strings.TrimSpace(r[audioIdx])
		}
		l := strings.ToLower(audioURL)
		if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") {
			continue
		}

		id := ""
		if idIdx >= 0 && idIdx < len(r) {
			id = strings.TrimSpace(r[idIdx])
		}
		if id == "" {
			id = uuid.NewString()
		}

		item := call.NewItem(id, audioURL)
		for i, key := range metaIdx {
			if i < len(r) && strings.TrimSpace(r[i]) != "" {
				if item.Metadata == nil {
					item.Metadata = map[string]string{}
				}
				item.Metadata[key] = strings.TrimSpace(r[i])
			}
		}
		out = append(out, item)
	}
	return out, nil
}
