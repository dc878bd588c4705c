package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// wordPattern matches maximal runs of letters, combining marks, digits and underscore.
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

type ScoreResult struct {
	Score           int
	MatchedCount    int
	TotalKeywords   int
	MatchedKeywords []string
}

// MatchSummary renders the human readable overlap line.
func (s ScoreResult) MatchSummary() string {
	return fmt.Sprintf("Matched %d of %d keywords", s.MatchedCount, s.TotalKeywords)
}

// Tokenize lower-cases text and returns its word tokens in order, duplicates included.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(norm.NFC.String(text)), -1)
}

// Score computes the share of unique job description tokens present in the resume.
// A job description without tokens scores 0.
func Score(resumeText, jobDescription string) ScoreResult {
	resumeTokens := make(map[string]struct{})
	for _, tok := range Tokenize(resumeText) {
		resumeTokens[tok] = struct{}{}
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range Tokenize(jobDescription) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}

	result := ScoreResult{TotalKeywords: len(keywords), MatchedKeywords: []string{}}
	for _, kw := range keywords {
		if _, ok := resumeTokens[kw]; ok {
			result.MatchedKeywords = append(result.MatchedKeywords, kw)
		}
	}
	result.MatchedCount = len(result.MatchedKeywords)

	if result.TotalKeywords == 0 {
		return result
	}

	result.Score = int(math.Round(float64(result.MatchedCount) / float64(result.TotalKeywords) * 100))
	return result
}
