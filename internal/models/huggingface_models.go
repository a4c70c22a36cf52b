package models

// Wire types for a Hugging Face text-embeddings-inference server.

type TEIEmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

type TEIEmbedResponse [][]float32

type TEIPredictRequest struct {
	Inputs    string `json:"inputs"`
	RawScores bool   `json:"raw_scores"`
	Truncate  bool   `json:"truncate"`
}

type (
	TEIPredictResponse []TEIPrediction
	TEIPrediction      struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
)

type TEIErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}
