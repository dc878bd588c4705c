package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/resume-analyzer/internal/logger"
)

const (
	SuggestionTemperature float32 = 0.7
	FallbackSuggestion            = "Unable to generate suggestions at this time."
)

type ParseKind int

const (
	Unparseable ParseKind = iota
	ParsedJSON
	ParsedLines
)

func (k ParseKind) String() string {
	switch k {
	case ParsedJSON:
		return "json"
	case ParsedLines:
		return "lines"
	default:
		return "unparseable"
	}
}

// SuggestionParse records which branch produced the suggestions.
type SuggestionParse struct {
	Kind        ParseKind
	Suggestions []string
}

type SuggestionGenerator interface {
	Generate(ctx context.Context, resumeText, jobDescription string) []string
}

type suggestionGenerator struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	log           *zap.Logger
}

func NewSuggestionGenerator(generator TextGenerator, log *zap.Logger) SuggestionGenerator {
	return &suggestionGenerator{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		log:           log,
	}
}

// Generate implements SuggestionGenerator. It never fails; errors degrade to the fallback suggestion.
func (s *suggestionGenerator) Generate(ctx context.Context, resumeText, jobDescription string) []string {
	prompt := s.promptBuilder.BuildSuggestionPrompt(resumeText, jobDescription)

	raw, err := s.generator.GenerateText(ctx, prompt, SuggestionTemperature)
	if err != nil {
		s.log.Warn("suggestion generation failed", zap.Error(err))
		return []string{FallbackSuggestion}
	}

	parsed := ParseSuggestions(raw)
	if parsed.Kind == Unparseable {
		s.log.Warn("suggestion response could not be parsed",
			zap.String("response", logger.TruncateForLog(raw, 200)))
		return []string{FallbackSuggestion}
	}

	s.log.Debug("suggestions generated",
		zap.Stringer("parse", parsed.Kind),
		zap.Int("count", len(parsed.Suggestions)))

	return parsed.Suggestions
}

var lineBreakPattern = regexp.MustCompile(`\n\s*`)

// ParseSuggestions tries a JSON array first and falls back to splitting on line breaks.
// Non-string array elements are rendered as text.
func ParseSuggestions(raw string) SuggestionParse {
	cleaned := CleanJSON(raw)

	if fromJSON, ok := decodeJSONArray(cleaned); ok {
		if suggestions := dropBlank(fromJSON); len(suggestions) > 0 {
			return SuggestionParse{Kind: ParsedJSON, Suggestions: suggestions}
		}
		return SuggestionParse{Kind: Unparseable}
	}

	if suggestions := dropBlank(lineBreakPattern.Split(cleaned, -1)); len(suggestions) > 0 {
		return SuggestionParse{Kind: ParsedLines, Suggestions: suggestions}
	}

	return SuggestionParse{Kind: Unparseable}
}

func decodeJSONArray(text string) ([]string, bool) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var items []any
	if err := decoder.Decode(&items); err != nil {
		return nil, false
	}
	if decoder.More() {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		case bool:
			out = append(out, strconv.FormatBool(v))
		case nil:
			out = append(out, "null")
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, false
			}
			out = append(out, string(encoded))
		}
	}
	return out, true
}

// CleanJSON removes a surrounding markdown code fence from model output.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")

	return strings.TrimSpace(clean)
}

func dropBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
