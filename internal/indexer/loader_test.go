package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		file      string
		content   string
		wantTitle string
		wantText  string
		wantErr   error
	}{
		{
			name:      "markdown with heading",
			file:      "qualification.md",
			content:   "# คุณสมบัติผู้กู้\n\nต้องมี**สัญชาติไทย**\n",
			wantTitle: "คุณสมบัติผู้กู้",
			wantText:  "คุณสมบัติผู้กู้\nต้องมีสัญชาติไทย",
		},
		{
			name:      "markdown without heading",
			file:      "loan_rules.md",
			content:   "อัตราดอกเบี้ยร้อยละ 1 ต่อปี",
			wantTitle: "Loan Rules",
			wantText:  "อัตราดอกเบี้ยร้อยละ 1 ต่อปี",
		},
		{
			name:      "plain text",
			file:      "repay-guide.txt",
			content:   "  ชำระผ่านธนาคาร\nหรือแอปพลิเคชัน  \n",
			wantTitle: "Repay Guide",
			wantText:  "ชำระผ่านธนาคาร\nหรือแอปพลิเคชัน",
		},
		{
			name:    "empty text",
			file:    "empty.txt",
			content: " \n\t",
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "unsupported",
			file:    "form.docx",
			content: "x",
			wantErr: ErrUnsupported,
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			doc, err := loader.Load(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if doc.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", doc.Title, tt.wantTitle)
			}
			if len(doc.Pages) != 1 || doc.Pages[0].Number != 1 {
				t.Fatalf("Pages = %+v, want one page numbered 1", doc.Pages)
			}
			if doc.Pages[0].Text != tt.wantText {
				t.Errorf("Text = %q, want %q", doc.Pages[0].Text, tt.wantText)
			}
			if string(doc.Content) != tt.content {
				t.Error("Content should hold the raw file bytes")
			}
		})
	}
}

func TestLoader_Load_Errors(t *testing.T) {
	loader := NewLoader()

	if _, err := loader.Load(filepath.Join(t.TempDir(), "missing.md")); err == nil || !strings.Contains(err.Error(), "failed to read file") {
		t.Errorf("Load(missing) error = %v", err)
	}

	broken := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(broken, []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(broken); err == nil || !strings.Contains(err.Error(), "failed to open pdf") {
		t.Errorf("Load(broken pdf) error = %v", err)
	}
}
