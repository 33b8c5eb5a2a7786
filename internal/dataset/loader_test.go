package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"voice-qa-go/internal/dataset"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestLoadCSVDetectsColumns(t *testing.T) {
	path := writeCSV(t, `Call ID,Agent Name,Call Recording Link,City
C-1001,Priya,https://recordings.example.com/1001.wav,Jaipur
C-1002,Arun,https://recordings.example.com/1002.wav,Pune
`)
	items, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "C-1001" || items[0].AudioURL != "https://recordings.example.com/1001.wav" {
		t.Fatalf("item 0 = %#v", items[0])
	}
	if items[1].Metadata["city"] != "Pune" || items[1].Metadata["agent name"] != "Arun" {
		t.Fatalf("metadata = %#v", items[1].Metadata)
	}
}

func TestLoadCSVSkipsRowsWithoutURL(t *testing.T) {
	path := writeCSV(t, `id,audio_url
a,https://recordings.example.com/a.wav
b,not-a-url
c,
d,https://recordings.example.com/d.wav
`)
	items, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "d" {
		t.Fatalf("items = %#v", items)
	}
}

func TestLoadCSVMintsMissingIDs(t *testing.T) {
	path := writeCSV(t, `audio_url
https://recordings.example.com/a.wav
https://recordings.example.com/b.wav
`)
	items, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID == "" || items[1].ID == "" || items[0].ID == items[1].ID {
		t.Fatalf("minted ids invalid: %q, %q", items[0].ID, items[1].ID)
	}
}

func TestLoadCSVNoAudioColumn(t *testing.T) {
	path := writeCSV(t, `name,city
Priya,Jaipur
`)
	if _, err := dataset.Load(path); err == nil {
		t.Fatal("expected error for roster without audio column")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := dataset.Load("roster.txt"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Call ID", "Audio URL"},
		{"X-1", "https://recordings.example.com/x1.wav"},
		{"X-2", "https://recordings.example.com/x2.wav"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	items, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "X-1" || items[1].ID != "X-2" {
		t.Fatalf("items = %#v", items)
	}
}
