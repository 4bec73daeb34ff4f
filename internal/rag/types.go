package rag

import "kyschat/internal/llm"

// AskRequest represents a RAG query request.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K is the number of chunks to retrieve. Zero uses the engine default, values above MaxK are capped.
	K int `json:"k,omitempty"`
	// Source restricts retrieval to one document source.
	Source string `json:"source,omitempty"`
	// Page restricts retrieval to one page number.
	Page int `json:"page,omitempty"`
	// Debug enables debug mode, returning the prompt and scoring details.
	Debug bool `json:"debug,omitempty"`
}

// ChunkResult is a retrieved chunk with its confidence scoring.
type ChunkResult struct {
	// ChunkID is the stable chunk identifier (the vector point ID).
	ChunkID string `json:"chunk_id"`
	// Source is the document source path.
	Source string `json:"source"`
	// PageNumber is the 1-based page the chunk came from.
	PageNumber int `json:"page_number"`
	// ChunkIndex is the chunk index within the document.
	ChunkIndex int `json:"chunk_index"`
	// Text is the chunk content given to the LLM.
	Text string `json:"text"`
	// Rank is the 1-based position in the search results.
	Rank int `json:"rank"`
	// Similarity is the cosine similarity in [0, 1].
	Similarity float64 `json:"similarity"`
	// Confidence is the similarity plus rank and length bonuses, capped at 1.
	Confidence float64 `json:"confidence"`
	// Level buckets Confidence.
	Level ConfidenceLevel `json:"level"`
}

// Citation is a formatted reference to a chunk used for the answer.
type Citation struct {
	Number     int     `json:"number"`
	Source     string  `json:"source"`
	PageNumber int     `json:"page_number"`
	Confidence float64 `json:"confidence"`
	// Label is the display form, e.g. "[1] loan.pdf หน้า 3 (ความมั่นใจ 87%)".
	Label string `json:"label"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer, or the fallback when nothing was retrieved.
	Answer string `json:"answer"`
	// Citations reference the chunks the answer is based on.
	Citations []Citation `json:"citations"`
	// Pages summarizes the cited page numbers.
	Pages string `json:"pages,omitempty"`
	// Confidence is the mean chunk confidence.
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	// Chunks are the chunks given to the LLM, in rank order.
	Chunks         []ChunkResult `json:"chunks"`
	PromptTokens   int           `json:"prompt_tokens"`
	ResponseTokens int           `json:"response_tokens"`
	// ResponseTime is the end-to-end latency in seconds.
	ResponseTime float64 `json:"response_time"`
	// Abstained is set when no context was found and the LLM was not called.
	Abstained bool `json:"abstained"`
	// Debug contains debug information when debug mode is enabled.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains retrieval and prompt details for debugging and evaluation.
type DebugInfo struct {
	// K is the effective number of chunks requested from the vector store.
	K int `json:"k"`
	// SearchResults is how many points the vector store returned.
	SearchResults int `json:"search_results"`
	// Dropped lists point IDs whose chunk text could not be found.
	Dropped []string `json:"dropped,omitempty"`
	// Messages is the exact prompt sent to the LLM.
	Messages []llm.Message `json:"messages,omitempty"`
}
