package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("record already exists")
)

// DocumentRecord represents an ingested source document.
type DocumentRecord struct {
	ID        string // UUID
	Source    string // Path of the source file, unique
	Title     string
	Hash      string // SHA256 hex string of file content
	Pages     int
	UpdatedAt time.Time
}

// ChunkRecord represents a chunk of a document, indexed for vector search.
type ChunkRecord struct {
	ID         string // UUID (same as the vector point ID)
	DocumentID string
	ChunkIndex int // Index within document (starts at 0)
	PageNumber int // 1-based page the chunk came from
	Text       string
}

// Message is one answered question.
type Message struct {
	ID            int64
	UserMessage   string
	Answer        string
	CorrectAnswer *string // Staff-provided answer, nil until reviewed
	Timestamp     time.Time
}

// RetrievedChunk is a chunk that was given to the LLM for a message.
type RetrievedChunk struct {
	ID            int64
	UserMessageID int64
	UserMessage   string // Joined from user_messages when listing
	ChunkText     string
	Source        string
	PageNumber    int
	Confidence    float64
}

// Metrics holds token counts and latency for one LLM call.
type Metrics struct {
	ID             int64
	UserMessageID  int64
	UserMessage    string
	PromptTokens   int
	ResponseTokens int
	ResponseTime   float64 // seconds
	Timestamp      time.Time
}

// Feedback is a satisfaction rating left at the end of a conversation.
type Feedback struct {
	ID            int64
	UserMessageID *int64
	UserMessage   string
	Satisfaction  string
	FeedbackText  string
	Timestamp     time.Time
}

// User is a staff account for the admin dashboard.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	FullName     string
	Email        string
	CreatedAt    time.Time
	LastLogin    *time.Time
	IsActive     bool
}

// Session is an authenticated admin session.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// MessageFilter narrows ListMessages.
type MessageFilter struct {
	// Search is matched case-insensitively against the question text.
	Search string
	Limit  int
}
