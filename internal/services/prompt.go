package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSuggestionPrompt creates the career-coaching prompt for resume improvement suggestions
func (pb *PromptBuilder) BuildSuggestionPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`You are an expert career coach. Given the following resume text and a job description, provide 5-7 concise, actionable improvement suggestions to increase ATS compatibility and better align the resume with the job requirements. Return the suggestions as a JSON array of strings.

Resume:
%s

Job Description:
%s`, resumeText, jobDescription)
}

// BuildSearchDocument creates the text that is embedded for a resume chunk
func (pb *PromptBuilder) BuildSearchDocument(filename, chunk string) string {
	if filename == "" {
		return chunk
	}
	return fmt.Sprintf("Resume %s\n\n%s", filename, chunk)
}

// Helper to render search hits as a short snippet
func Snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
