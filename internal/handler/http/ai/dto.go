// Package ai provides HTTP handlers for the AI-assisted endpoints:
// semantic search over session notes and client insight generation. Both
// operations touch clinical content, so the role permissions restrict them
// to the admin role.
package ai

// SearchRequest is the JSON body for POST /ai/search.
type SearchRequest struct {
	Query string `json:"query" example:"lower back pain after exercise"`
	Limit int    `json:"limit,omitempty" example:"10"`
}

// SearchMatch is one semantic search result.
type SearchMatch struct {
	SessionID  string  `json:"session_id" example:"5f1c2f1e-0000-4000-8000-000000000001"`
	Similarity float64 `json:"similarity" example:"0.87"`
}

// SearchResponse is the JSON body returned by POST /ai/search.
type SearchResponse struct {
	Matches []SearchMatch `json:"matches"`
}

// AskRequest is the JSON body for POST /ai/ask.
type AskRequest struct {
	ClientID string `json:"client_id" example:"5f1c2f1e-0000-4000-8000-000000000002"`
	Question string `json:"question" example:"How has this client's mobility progressed?"`
}

// AskResponse is the JSON body returned by POST /ai/ask.
type AskResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model" example:"gpt-4o-mini"`
}
