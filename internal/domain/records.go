package domain

import "time"

// Usage holds token counts reported by an upstream provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" bson:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" bson:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" bson:"total_tokens"`
}

// AICompletion records one relayed LLM exchange.
type AICompletion struct {
	ID           string      `json:"id" bson:"-"`
	Prompt       string      `json:"prompt" bson:"prompt"`
	SystemPrompt *string     `json:"system_prompt,omitempty" bson:"system_prompt,omitempty"`
	Model        string      `json:"model" bson:"model"`
	Response     string      `json:"response" bson:"response"`
	Usage        *Usage      `json:"usage,omitempty" bson:"usage,omitempty"`
	RequestType  RequestType `json:"request_type" bson:"request_type"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
}

// Transcription is a manually submitted transcript.
type Transcription struct {
	ID         string    `json:"id" bson:"-"`
	Text       string    `json:"text" bson:"text"`
	Source     *string   `json:"source,omitempty" bson:"source,omitempty"`
	AIResponse *string   `json:"ai_response,omitempty" bson:"ai_response,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// SttTranscription is the stored result of a speech-to-text call.
type SttTranscription struct {
	ID         string    `json:"id" bson:"-"`
	Text       string    `json:"text" bson:"text"`
	Language   *string   `json:"language,omitempty" bson:"language,omitempty"`
	Duration   *float64  `json:"duration,omitempty" bson:"duration,omitempty"`
	Model      string    `json:"model" bson:"model"`
	FileName   *string   `json:"file_name,omitempty" bson:"file_name,omitempty"`
	FileSize   *int64    `json:"file_size,omitempty" bson:"file_size,omitempty"`
	SessionID  *string   `json:"session_id,omitempty" bson:"session_id,omitempty"`
	AIResponse *string   `json:"ai_response,omitempty" bson:"ai_response,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// ModelInfo describes a model offered by the relay.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ContextLength int    `json:"context_length"`
}

// ModelCatalog lists the models advertised by the relay.
var ModelCatalog = []ModelInfo{
	{ID: "xiaomi/mimo-v2-flash:free", Name: "MiMo-V2-Flash", Description: "Xiaomi's 309B MoE model, excels at reasoning and coding", ContextLength: 262144},
	{ID: "nvidia/nemotron-3-nano-30b-a3b:free", Name: "Nemotron 3 Nano 30B", Description: "NVIDIA's efficient 30B MoE for agentic AI systems", ContextLength: 256000},
	{ID: "mistralai/devstral-2512:free", Name: "Devstral 2", Description: "Mistral's 123B coding specialist with 256K context", ContextLength: 262144},
	{ID: "nex-agi/deepseek-v3.1-nex-n1:free", Name: "DeepSeek V3.1 Nex N1", Description: "Nex AGI's flagship model for agent autonomy and tool use", ContextLength: 131072},
	{ID: "kwaipilot/kat-coder-pro:free", Name: "KAT-Coder-Pro V1", Description: "KwaiKAT's advanced agentic coding model, 73.4% on SWE-Bench", ContextLength: 256000},
	{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", Description: "Meta's 8B model served by Groq for low-latency replies", ContextLength: 131072},
}
