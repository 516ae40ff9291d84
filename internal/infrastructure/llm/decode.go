package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"LinkStrategist/internal/domain"
)

const (
	fallbackRating         = 9
	fallbackProcessingTime = 2.3

	defaultArticleType  = "Article"
	defaultReaderIntent = "Learning"
	defaultBestStrategy = "Strategic placement"
)

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// rawResult mirrors the requested JSON shape; pointers detect absent fields.
type rawResult struct {
	Opportunities *[]rawOpportunity `json:"opportunities"`
	ArticleType   *string           `json:"article_type"`
	ReaderIntent  *string           `json:"reader_intent"`
	BestStrategy  *string           `json:"best_strategy"`
}

type rawOpportunity struct {
	ID        *int    `json:"id"`
	Rating    *int    `json:"rating"`
	Location  *string `json:"location"`
	Context   *string `json:"context"`
	OldText   *string `json:"old_text"`
	NewText   *string `json:"new_text"`
	Reasoning *string `json:"reasoning"`
	UserValue *string `json:"user_value"`
}

// decodeReply extracts the model text from a messages envelope and validates
// it against the result shape. Errors wrap domain.ErrContractViolation.
func decodeReply(reply []byte) (domain.AnalysisResult, error) {
	var envelope messagesResponse
	if err := json.Unmarshal(reply, &envelope); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: decode envelope: %w", domain.ErrContractViolation, err)
	}

	var text strings.Builder
	for _, block := range envelope.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: reply has no text content", domain.ErrContractViolation)
	}

	var raw rawResult
	if err := decodeJSON(text.String(), &raw); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrContractViolation, err)
	}
	return raw.toResult()
}

func (r rawResult) toResult() (domain.AnalysisResult, error) {
	if r.Opportunities == nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: missing opportunities", domain.ErrContractViolation)
	}

	result := domain.AnalysisResult{
		Opportunities: make([]domain.LinkOpportunity, 0, len(*r.Opportunities)),
		ArticleType:   valueOr(r.ArticleType, defaultArticleType),
		ReaderIntent:  valueOr(r.ReaderIntent, defaultReaderIntent),
		BestStrategy:  valueOr(r.BestStrategy, defaultBestStrategy),
	}
	for i, opp := range *r.Opportunities {
		if missing := opp.missingFields(); len(missing) > 0 {
			return domain.AnalysisResult{}, fmt.Errorf("%w: opportunity %d missing %s",
				domain.ErrContractViolation, i, strings.Join(missing, ", "))
		}
		result.Opportunities = append(result.Opportunities, domain.LinkOpportunity{
			ID:        *opp.ID,
			Rating:    *opp.Rating,
			Location:  *opp.Location,
			Context:   *opp.Context,
			OldText:   *opp.OldText,
			NewText:   *opp.NewText,
			Reasoning: *opp.Reasoning,
			UserValue: *opp.UserValue,
		})
	}
	return result, nil
}

func (o rawOpportunity) missingFields() []string {
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("id", o.ID != nil)
	check("rating", o.Rating != nil)
	check("location", o.Location != nil)
	check("context", o.Context != nil)
	check("old_text", o.OldText != nil)
	check("new_text", o.NewText != nil)
	check("reasoning", o.Reasoning != nil)
	check("user_value", o.UserValue != nil)
	return missing
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

// fallbackResult is the deterministic single placement returned when the
// model reply cannot be used.
func fallbackResult(toURL, keyword string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Opportunities: []domain.LinkOpportunity{{
			ID:        1,
			Rating:    fallbackRating,
			Location:  "After the section that introduces the main topic",
			Context:   "The reader has absorbed the core information and is ready for a deeper resource",
			OldText:   "",
			NewText:   fmt.Sprintf("<p>For a closer look at this topic, see our detailed <a href='%s'>%s</a> guide.</p>", toURL, keyword),
			Reasoning: "Generated locally because the analyzer reply could not be parsed",
			UserValue: "Gives readers a direct path to more in-depth coverage",
		}},
		ProcessingTime: fallbackProcessingTime,
		ArticleType:    defaultArticleType,
		ReaderIntent:   defaultReaderIntent,
		BestStrategy:   defaultBestStrategy,
		UsedFallback:   true,
	}
}

// decodeJSON decodes a model reply, tolerating code fences and prose around
// the JSON object.
func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, snippet(trimmed))
	}

	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, snippet(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
