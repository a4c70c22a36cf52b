package models

// EmotionScores maps an emotion label to its probability.
type EmotionScores map[string]float64

type AnalysisRequest struct {
	Text       *string  `json:"text"`
	Vocabulary []string `json:"vocabulary"`
}

// TextValue returns the request text, or "" when the field was absent or null.
func (r AnalysisRequest) TextValue() string {
	if r.Text == nil {
		return ""
	}
	return *r.Text
}

type TermRelevance struct {
	Term      string  `json:"term"`
	Relevance float64 `json:"relevance"`
}

type SentimentScore struct {
	Compound float64 `json:"compound"`
	Label    string  `json:"label"`
}

type AnalysisResponse struct {
	Emotions      EmotionScores   `json:"emotions"`
	Keywords      []string        `json:"keywords"`
	TermRelevance []TermRelevance `json:"term_relevance"`
	Sentiment     *SentimentScore `json:"sentiment,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// EmptyAnalysisResponse has non-nil placeholders so it encodes as
// {"emotions":{},"keywords":[],"term_relevance":[]}.
func EmptyAnalysisResponse() AnalysisResponse {
	return AnalysisResponse{
		Emotions:      EmotionScores{},
		Keywords:      []string{},
		TermRelevance: []TermRelevance{},
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FailedAnalysisResponse is the 500 body: the error plus an empty analysis.
type FailedAnalysisResponse struct {
	Error string `json:"error"`
	AnalysisResponse
}
