package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		overlap    int
		wantParams string
		wantErr    bool
	}{
		{"defaults", 0, -1, "chunkSize=500|chunkOverlap=50", false},
		{"custom", 300, 30, "chunkSize=300|chunkOverlap=30", false},
		{"no overlap", 200, 0, "chunkSize=200|chunkOverlap=0", false},
		{"overlap too large", 100, 100, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSplitter(tt.size, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSplitter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Params() != tt.wantParams {
				t.Errorf("Params() = %s, want %s", s.Params(), tt.wantParams)
			}
		})
	}
}

func TestSplitter_Split(t *testing.T) {
	s, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("ผู้กู้ยืมต้องชำระหนี้คืนภายในสองปีหลังสำเร็จการศึกษา ", 8)
	pages := []Page{
		{Number: 1, Text: "คุณสมบัติผู้กู้ยืม"},
		{Number: 3, Text: long},
	}

	chunks, err := s.Split(pages)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("Split() returned %d chunks, want at least 3", len(chunks))
	}

	if chunks[0].PageNumber != 1 || chunks[0].Text != "คุณสมบัติผู้กู้ยืม" {
		t.Errorf("chunks[0] = %+v", chunks[0])
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunks[%d].Index = %d, indexes should run across pages", i, c.Index)
		}
		if i > 0 && c.PageNumber != 3 {
			t.Errorf("chunks[%d].PageNumber = %d, want 3", i, c.PageNumber)
		}
		if n := utf8.RuneCountInString(c.Text); n > 100 {
			t.Errorf("chunks[%d] has %d runes, want <= 100", i, n)
		}
		if c.Text != strings.TrimSpace(c.Text) || c.Text == "" {
			t.Errorf("chunks[%d] text not trimmed: %q", i, c.Text)
		}
	}
}

func TestSplitter_Split_Empty(t *testing.T) {
	s, _ := NewSplitter(0, 0)
	chunks, err := s.Split([]Page{{Number: 1, Text: "   "}})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Split() = %+v, want no chunks", chunks)
	}
}
