package domain

import "time"

// ArticleStatus enumerates the analysis state of a single article.
type ArticleStatus string

const (
	ArticlePending   ArticleStatus = "pending"
	ArticleAnalyzing ArticleStatus = "analyzing"
	ArticleCompleted ArticleStatus = "completed"
	ArticleError     ArticleStatus = "error"
)

// Terminal reports whether no analysis attempt is in flight.
func (s ArticleStatus) Terminal() bool {
	return s == ArticleCompleted || s == ArticleError
}

// Article is one page that should receive a link to ToURL.
type Article struct {
	ID          string
	ProjectID   string
	FromURL     string
	ToURL       string
	MainKeyword string
	OrderIndex  int
	HTMLContent string
	Status      ArticleStatus
	// Analysis is set only while Status is ArticleCompleted.
	Analysis       *AnalysisResult
	ProcessingTime *float64
	CreatedAt      time.Time
}

// LinkOpportunity is one candidate placement proposed by the analyzer.
type LinkOpportunity struct {
	ID        int    `json:"id"`
	Rating    int    `json:"rating"`
	Location  string `json:"location"`
	Context   string `json:"context"`
	OldText   string `json:"old_text"`
	NewText   string `json:"new_text"`
	Reasoning string `json:"reasoning"`
	UserValue string `json:"user_value"`
}

// AnalysisResult is the structured outcome of one analysis attempt.
type AnalysisResult struct {
	Opportunities  []LinkOpportunity `json:"opportunities"`
	ProcessingTime float64           `json:"processing_time"`
	ArticleType    string            `json:"article_type"`
	ReaderIntent   string            `json:"reader_intent"`
	BestStrategy   string            `json:"best_strategy"`
	// UsedFallback marks results synthesised locally after a malformed upstream reply.
	UsedFallback bool `json:"used_fallback"`
}

// ExportRow is one flattened opportunity with its article's link metadata.
type ExportRow struct {
	FromURL     string `json:"from_url"`
	ToURL       string `json:"to_url"`
	MainKeyword string `json:"main_kw"`
	Rating      int    `json:"rating"`
	Location    string `json:"location"`
	OldText     string `json:"old_text"`
	NewText     string `json:"new_text"`
	Reasoning   string `json:"reasoning"`
}
