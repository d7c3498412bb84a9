// Package domain defines the core domain models for the relay backend.
package domain

// Message roles used by the relay. Roles are a convention, not a closed set.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultSessionType is assigned to sessions created without a type.
const DefaultSessionType = "general"

// RequestType tags how an AICompletion record was produced.
type RequestType string

const (
	RequestTypeComplete RequestType = "complete"
	RequestTypeSuggest  RequestType = "suggest"
	RequestTypeAnalyze  RequestType = "analyze"
	RequestTypeChat     RequestType = "chat"
)
