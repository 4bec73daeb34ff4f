package rag

import (
	"fmt"
	"strings"

	"kyschat/internal/llm"
)

// FallbackAnswer is returned when the documents hold nothing relevant.
const FallbackAnswer = "ไม่พบข้อมูลที่เกี่ยวข้องในเอกสาร"

const systemPrompt = `คุณเป็นผู้ช่วย AI ที่เชี่ยวชาญด้านคุณสมบัติผู้กู้ยืมเงิน กยศ.
โปรดตอบคำถามอย่างชัดเจน กระชับ และเป็นมิตร ใช้ข้อมูลจากบริบทที่ให้มาเท่านั้น
- ตอบเป็นภาษาไทยที่เข้าใจง่าย
- เจาะจงเกี่ยวกับคุณสมบัติผู้กู้ยืม กยศ.
- ถ้าไม่มีข้อมูลในบริบท ให้บอกว่า "` + FallbackAnswer + `"`

// fewShot pairs are sent ahead of the real question.
var fewShot = []struct{ question, answer string }{
	{"รายได้ครอบครัวของผู้กู้ต้องไม่เกินเท่าไหร่ต่อปี?", "ไม่เกิน 360,000 บาทต่อปีครับ"},
	{"คนอายุ 33 ปี ยังสามารถกู้ได้หรือไม่?", "ได้ครับ เฉพาะลักษณะที่ 4 (จำกัดอายุไม่เกิน 35 ปี)"},
}

// buildContext joins chunk texts with a header naming the file and page.
func buildContext(chunks []ChunkResult) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s หน้า %d\n%s", i+1, sourceName(c.Source), c.PageNumber, c.Text)
	}
	return b.String()
}

// buildMessages assembles the system prompt, the few-shot examples and the question with its context.
func buildMessages(question string, chunks []ChunkResult) []llm.Message {
	messages := make([]llm.Message, 0, 2+2*len(fewShot))
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, ex := range fewShot {
		messages = append(messages,
			llm.Message{Role: "user", Content: ex.question},
			llm.Message{Role: "assistant", Content: ex.answer},
		)
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("บริบท (Context):\n%s\n\nคำถาม (Question): %s\n\nคำตอบ (Answer):", buildContext(chunks), question),
	})
	return messages
}
