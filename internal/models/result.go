package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalyzeResponse is returned by POST /api/resume/analyze.
type AnalyzeResponse struct {
	ATSScore        int        `json:"atsScore"`
	MatchSummary    string     `json:"matchSummary"`
	Recommendations []string   `json:"recommendations"`
	ResumeID        *uuid.UUID `json:"resumeId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalysisSummary is the list view of a stored analysis.
type AnalysisSummary struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	ATSScore         int       `json:"atsScore"`
	MatchSummary     string    `json:"matchSummary"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AnalysisDetail is the full view of a stored analysis.
type AnalysisDetail struct {
	AnalysisSummary
	JobDescription  string   `json:"jobDescription"`
	ParsedContent   string   `json:"parsedContent"`
	Recommendations []string `json:"recommendations"`
}

type SearchHit struct {
	ResumeID string  `json:"resumeId"`
	Score    float32 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

func NewAnalysisSummary(a *Analysis) AnalysisSummary {
	return AnalysisSummary{
		ID:               a.ID.String(),
		OriginalFilename: a.OriginalFilename,
		ATSScore:         a.ATSScore,
		MatchSummary:     a.MatchSummary,
		CreatedAt:        a.CreatedAt,
	}
}

func NewAnalysisDetail(a *Analysis) AnalysisDetail {
	recommendations := a.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return AnalysisDetail{
		AnalysisSummary: NewAnalysisSummary(a),
		JobDescription:  a.JobDescription,
		ParsedContent:   a.ParsedContent,
		Recommendations: recommendations,
	}
}
