package model

import "time"

// Document is one uploaded file after text extraction.
type Document struct {
	Name string
	Kind string // pdf, txt, html
	Text string
}

type Chunk struct {
	ID       string
	IndexKey string
	Seq      int
	Source   string
	Content  string
}

// Retrieved is a chunk returned by a similarity search.
type Retrieved struct {
	Chunk Chunk
	Score float64
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session keeps what the page used to hold in its session state: the API key,
// the index built from the last upload and the running conversation.
type Session struct {
	ID        string        `json:"id"`
	APIKey    string        `json:"api_key"`
	IndexKey  string        `json:"index_key"`
	History   []ChatMessage `json:"history"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IngestReport is what gets shown after an upload is processed.
type IngestReport struct {
	Files           []string `json:"files"`
	Skipped         []string `json:"skipped,omitempty"`
	Characters      int      `json:"characters"`
	EstimatedTokens int      `json:"estimated_tokens"`
	Chunks          int      `json:"chunks"`
	IndexKey        string   `json:"index_key"`
	Cached          bool     `json:"cached"`
}
