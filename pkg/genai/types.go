package genai

import (
	"errors"
	"strings"
)

// Analysis is the skill matrix extracted from a résumé and job description.
type Analysis struct {
	CandidateName       string   `json:"candidate_name"`
	MatchingSkills      []string `json:"matching_skills"`
	MissingSkills       []string `json:"missing_skills"`
	SuggestedFocusAreas []string `json:"suggested_focus_areas"`
}

// Empty reports whether the analysis carries no usable signal.
func (a Analysis) Empty() bool {
	return strings.TrimSpace(a.CandidateName) == "" &&
		len(a.MatchingSkills) == 0 &&
		len(a.MissingSkills) == 0 &&
		len(a.SuggestedFocusAreas) == 0
}

// QuestionDraft is one generated interview question.
type QuestionDraft struct {
	QuestionText      string   `json:"question_text"`
	Difficulty        string   `json:"difficulty"`
	ExpectedKeyPoints []string `json:"expected_key_points"`
}

func (q QuestionDraft) validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return errors.New("question_text is empty")
	}
	return nil
}

// Evaluation scores one answer.
type Evaluation struct {
	AccuracyScore int    `json:"accuracy_score"`
	ClarityScore  int    `json:"clarity_score"`
	DepthScore    int    `json:"depth_score"`
	Feedback      string `json:"feedback"`
	Sentiment     string `json:"sentiment"`
}

// Report is the final interview summary.
type Report struct {
	OverallScore         int      `json:"overall_score"`
	Strengths            []string `json:"strengths"`
	Weaknesses           []string `json:"weaknesses"`
	FinalFeedback        string   `json:"final_feedback"`
	HiringRecommendation string   `json:"hiring_recommendation"`
}

// ResponseSummary is one line of interview history fed to the report prompt.
type ResponseSummary struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
}

// Fixed fallbacks so callers always branch on a well-formed structure even
// when the upstream call failed. See the evaluation/report degradation rules.
func fallbackEvaluation() Evaluation {
	return Evaluation{Feedback: "Error evaluating", Sentiment: "Neutral"}
}

func fallbackReport() Report {
	return Report{
		Strengths:            []string{"N/A"},
		Weaknesses:           []string{"N/A"},
		FinalFeedback:        "Could not generate report due to error.",
		HiringRecommendation: "N/A",
	}
}
