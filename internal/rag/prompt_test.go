package rag

import (
	"strings"
	"testing"
)

func TestBuildMessages(t *testing.T) {
	chunks := []ChunkResult{
		{Source: "docs/loan.pdf", PageNumber: 2, Text: "รายได้ครอบครัวไม่เกิน 360,000 บาทต่อปี"},
		{Source: "faq.md", PageNumber: 1, Text: "ลักษณะที่ 4 จำกัดอายุไม่เกิน 35 ปี"},
	}

	messages := buildMessages("ใครกู้ได้บ้าง", chunks)

	if len(messages) != 2+2*len(fewShot) {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[0].Role != "system" || !strings.Contains(messages[0].Content, FallbackAnswer) {
		t.Errorf("system prompt should instruct the fallback answer: %q", messages[0].Content)
	}
	for i := 1; i < len(messages)-1; i += 2 {
		if messages[i].Role != "user" || messages[i+1].Role != "assistant" {
			t.Errorf("few-shot pair at %d has roles %s/%s", i, messages[i].Role, messages[i+1].Role)
		}
	}

	last := messages[len(messages)-1]
	if last.Role != "user" {
		t.Errorf("last role = %s, want user", last.Role)
	}
	for _, want := range []string{
		"ใครกู้ได้บ้าง",
		"[1] loan.pdf หน้า 2\nรายได้ครอบครัวไม่เกิน 360,000 บาทต่อปี",
		"[2] faq.md หน้า 1\nลักษณะที่ 4 จำกัดอายุไม่เกิน 35 ปี",
	} {
		if !strings.Contains(last.Content, want) {
			t.Errorf("user message missing %q:\n%s", want, last.Content)
		}
	}
}

func TestBuildContext_WindowsPath(t *testing.T) {
	got := buildContext([]ChunkResult{{Source: `C:\kys\docs\manual.pdf`, PageNumber: 5, Text: "ดอกเบี้ยร้อยละ 1"}})
	want := "[1] manual.pdf หน้า 5\nดอกเบี้ยร้อยละ 1"
	if got != want {
		t.Errorf("buildContext() = %q, want %q", got, want)
	}
}

func TestSourceName(t *testing.T) {
	tests := map[string]string{
		"docs/Loan_Features.pdf":     "Loan_Features.pdf",
		`C:\kys\manual.pdf`:          "manual.pdf",
		`docs\2567/qualification.md`: "qualification.md",
		"faq.md":                     "faq.md",
	}
	for in, want := range tests {
		if got := sourceName(in); got != want {
			t.Errorf("sourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
