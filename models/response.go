package models

// Data sources reported in listing responses. The literal values are
// part of the public response contract consumed by existing clients
// and must not change.
const (
	SourceKV       = "kv"
	SourceDatabase = "supabase"
	SourceMerged   = "kv+supabase"
)

// ListResponse is the envelope for listing endpoints. Pagination fields
// are omitted when the caller requested the complete set (all=true).
type ListResponse struct {
	Rows       []IPO  `json:"rows"`
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
	Total      int    `json:"total,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

// ErrorResponse is the error payload shape shared by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
