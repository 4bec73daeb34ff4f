package rag

import "testing"

func TestFormatCitations(t *testing.T) {
	chunks := []ChunkResult{
		{Source: "docs/Loan_Features.pdf", PageNumber: 3, Confidence: 0.8734},
		{Source: "qualification.md", PageNumber: 1, Confidence: 0.5},
		{Source: `C:\kys\manual.pdf`, PageNumber: 12, Confidence: 1},
	}

	got := FormatCitations(chunks)
	want := []string{
		"[1] Loan_Features.pdf หน้า 3 (ความมั่นใจ 87%)",
		"[2] qualification.md หน้า 1 (ความมั่นใจ 50%)",
		"[3] manual.pdf หน้า 12 (ความมั่นใจ 100%)",
	}

	if len(got) != len(want) {
		t.Fatalf("FormatCitations() returned %d citations, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Errorf("citation %d = %q, want %q", i, got[i].Label, want[i])
		}
		if got[i].Number != i+1 || got[i].Source != chunks[i].Source || got[i].PageNumber != chunks[i].PageNumber {
			t.Errorf("citation %d = %+v", i, got[i])
		}
	}

	if empty := FormatCitations(nil); len(empty) != 0 {
		t.Errorf("FormatCitations(nil) = %v, want empty", empty)
	}
}

func TestPageSummary(t *testing.T) {
	tests := []struct {
		name  string
		pages []int
		want  string
	}{
		{"none", nil, ""},
		{"single", []int{4}, "อ้างอิงจากหน้า: 4"},
		{"sorted and unique", []int{3, 1, 3, 10}, "อ้างอิงจากหน้า: 1, 3, 10"},
		{"unknown pages ignored", []int{0, 2}, "อ้างอิงจากหน้า: 2"},
		{"only unknown", []int{0, -1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := make([]ChunkResult, len(tt.pages))
			for i, p := range tt.pages {
				chunks[i].PageNumber = p
			}
			if got := PageSummary(chunks); got != tt.want {
				t.Errorf("PageSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
