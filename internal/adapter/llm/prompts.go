package llm

import (
	"fmt"
	"strings"
)

// SuggestionType selects the prompt used by Suggest.
type SuggestionType int

const (
	// SuggestGeneral is used for unknown or absent types.
	SuggestGeneral SuggestionType = iota
	SuggestInterview
	SuggestCoding
	SuggestMeeting
)

// ParseSuggestionType maps a request string to a SuggestionType.
// Unrecognized values map to SuggestGeneral.
func ParseSuggestionType(s string) SuggestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interview", "coding_interview":
		return SuggestInterview
	case "leetcode", "coding":
		return SuggestCoding
	case "meeting":
		return SuggestMeeting
	default:
		return SuggestGeneral
	}
}

func (t SuggestionType) String() string {
	switch t {
	case SuggestInterview:
		return "interview"
	case SuggestCoding:
		return "coding"
	case SuggestMeeting:
		return "meeting"
	default:
		return "general"
	}
}

// AnalysisType selects the prompt used by Analyze.
type AnalysisType int

const (
	// AnalyzeGeneral is used for unknown or absent types.
	AnalyzeGeneral AnalysisType = iota
	AnalyzeSentiment
	AnalyzeIntent
	AnalyzeSummary
	AnalyzeTechnical
	AnalyzeDebug
)

// ParseAnalysisType maps a request string to an AnalysisType.
func ParseAnalysisType(s string) AnalysisType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sentiment":
		return AnalyzeSentiment
	case "intent":
		return AnalyzeIntent
	case "summary":
		return AnalyzeSummary
	case "technical":
		return AnalyzeTechnical
	case "debug", "debugging":
		return AnalyzeDebug
	default:
		return AnalyzeGeneral
	}
}

func (t AnalysisType) String() string {
	switch t {
	case AnalyzeSentiment:
		return "sentiment"
	case AnalyzeIntent:
		return "intent"
	case AnalyzeSummary:
		return "summary"
	case AnalyzeTechnical:
		return "technical"
	case AnalyzeDebug:
		return "debug"
	default:
		return "general"
	}
}

// PromptTemplate is one row of a dispatch table.
type PromptTemplate struct {
	System string
	// Framing wraps the caller's text. It must contain exactly one %s.
	Framing     string
	MaxTokens   int
	Temperature float64
}

func (p PromptTemplate) request(text, model string) CompletionRequest {
	framing := p.Framing
	if framing == "" {
		framing = "%s"
	}
	system := p.System
	maxTokens := p.MaxTokens
	temperature := p.Temperature
	return CompletionRequest{
		Prompt:       fmt.Sprintf(framing, text),
		Model:        model,
		SystemPrompt: &system,
		MaxTokens:    &maxTokens,
		Temperature:  &temperature,
	}
}

// Preset is a complete set of suggestion and analysis prompts.
type Preset struct {
	Name    string
	Suggest map[SuggestionType]PromptTemplate
	Analyze map[AnalysisType]PromptTemplate
}

func (p *Preset) suggestTemplate(t SuggestionType) PromptTemplate {
	tmpl, ok := p.Suggest[t]
	if !ok {
		tmpl = p.Suggest[SuggestGeneral]
	}
	return tmpl
}

func (p *Preset) analyzeTemplate(t AnalysisType) PromptTemplate {
	tmpl, ok := p.Analyze[t]
	if !ok {
		tmpl = p.Analyze[AnalyzeGeneral]
	}
	return tmpl
}

// SuggestRequest builds the completion request for a suggestion.
func (p *Preset) SuggestRequest(text, model string, t SuggestionType) CompletionRequest {
	return p.suggestTemplate(t).request(text, model)
}

// AnalyzeRequest builds the completion request for an analysis.
func (p *Preset) AnalyzeRequest(text, model string, t AnalysisType) CompletionRequest {
	return p.analyzeTemplate(t).request(text, model)
}

// SuggestMaxTokens is the token budget of a suggestion of type t.
func (p *Preset) SuggestMaxTokens(t SuggestionType) int {
	return p.suggestTemplate(t).MaxTokens
}

// AnalyzeMaxTokens is the token budget of an analysis of type t.
func (p *Preset) AnalyzeMaxTokens(t AnalysisType) int {
	return p.analyzeTemplate(t).MaxTokens
}

// Preset names accepted by PROMPT_PRESET.
const (
	PresetStandard = "standard"
	PresetClassic  = "classic"
)

// analysisTemperature and analysisMaxTokens apply to every analysis prompt.
const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 600
)

func analysis(system string) PromptTemplate {
	return PromptTemplate{System: system, MaxTokens: analysisMaxTokens, Temperature: analysisTemperature}
}

// StandardPreset is the terse real-time assistant prompt set.
var StandardPreset = &Preset{
	Name: PresetStandard,
	Suggest: map[SuggestionType]PromptTemplate{
		SuggestInterview: {
			System: `You are a real-time coding interview coach. Be EXTREMELY concise.

For coding: give optimal solution in code block, then "Time: O(?) | Space: O(?) | Pattern: [name]"
For behavioral: give 2-3 bullet points max
For system design: list 3-5 key components

NO lengthy explanations. Direct answers only.`,
			Framing:     "Solve this:\n\n%s",
			MaxTokens:   800,
			Temperature: 0.3,
		},
		SuggestCoding: {
			System: "You are an expert competitive programmer. Give CONCISE answers.\n\n" +
				"FORMAT:\n```python\n[code]\n```\nTime: O(?) | Space: O(?) | Pattern: [name]\n\n" +
				"NO explanations unless asked. Code only.",
			Framing:     "Solve this:\n\n%s",
			MaxTokens:   800,
			Temperature: 0.2,
		},
		SuggestMeeting: {
			System: `You are a meeting assistant providing real-time suggestions.

RULES:
- Give actionable responses the user can say immediately
- Keep suggestions brief (1-2 sentences each)
- Be professional but natural
- Provide 2-3 options when appropriate`,
			Framing:     "Help with this:\n\n%s",
			MaxTokens:   400,
			Temperature: 0.5,
		},
		SuggestGeneral: {
			System:      "You are Cleuly, a real-time AI assistant. Be direct, concise, and helpful. Give answers the user can use immediately.",
			Framing:     "Help with this:\n\n%s",
			MaxTokens:   600,
			Temperature: 0.7,
		},
	},
	Analyze: map[AnalysisType]PromptTemplate{
		AnalyzeSentiment: analysis("Analyze sentiment briefly. Format: [POSITIVE/NEGATIVE/NEUTRAL] - one line explanation."),
		AnalyzeIntent:    analysis("Identify the speaker's intent in one sentence."),
		AnalyzeSummary:   analysis("Summarize in 2-3 bullet points maximum."),
		AnalyzeTechnical: analysis("Explain the technical concept concisely with a code example if relevant."),
		AnalyzeDebug:     analysis("You are a debugging expert. Identify the bug, explain why it happens, and provide the fix. Be direct."),
		AnalyzeGeneral:   analysis("Provide a brief, useful analysis."),
	},
}

// ClassicPreset is a conversational prompt set written for this relay as an
// alternative to StandardPreset. The coding and debugging rows reuse the
// closest conversational prompt.
var ClassicPreset = &Preset{
	Name: PresetClassic,
	Suggest: map[SuggestionType]PromptTemplate{
		SuggestInterview: {
			System: "You are an interview assistant. The user is in a live interview. " +
				"Suggest a clear, well-structured answer they can give, using the STAR method for behavioral questions.",
			Framing:     "The interviewer said:\n\n%s\n\nSuggest a response.",
			MaxTokens:   800,
			Temperature: 0.3,
		},
		SuggestCoding: {
			System: "You are an interview assistant. The user is in a live technical interview. " +
				"Explain the approach in two sentences, then give working code and its complexity.",
			Framing:     "The interviewer said:\n\n%s\n\nSuggest a response.",
			MaxTokens:   800,
			Temperature: 0.2,
		},
		SuggestMeeting: {
			System:      "You are a meeting assistant. Suggest a short, professional reply the user could say next.",
			Framing:     "Conversation so far:\n\n%s\n\nWhat should I say?",
			MaxTokens:   400,
			Temperature: 0.5,
		},
		SuggestGeneral: {
			System:      "You are Cleuly, a helpful AI assistant. Provide concise, helpful responses.",
			Framing:     "Context:\n\n%s\n\nWhat would you suggest?",
			MaxTokens:   600,
			Temperature: 0.7,
		},
	},
	Analyze: map[AnalysisType]PromptTemplate{
		AnalyzeSentiment: analysis("Analyze the sentiment of the following text. Reply with positive, negative or neutral and a short reason."),
		AnalyzeIntent:    analysis("Describe what the speaker wants to achieve."),
		AnalyzeSummary:   analysis("Summarize the following text in a short paragraph."),
		AnalyzeTechnical: analysis("Explain the technical content of the following text for a non-expert."),
		AnalyzeDebug:     analysis("Explain the technical content of the following text and point out any errors."),
		AnalyzeGeneral:   analysis("Analyze the following text and highlight the key points."),
	},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (*Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetStandard:
		return StandardPreset, nil
	case PresetClassic:
		return ClassicPreset, nil
	default:
		return nil, fmt.Errorf("unknown prompt preset %q", name)
	}
}
