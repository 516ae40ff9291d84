package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"LinkStrategist/internal/infrastructure/htmldoc"
	"LinkStrategist/internal/ports"
)

const responseShape = `{
  "opportunities": [
    {
      "id": 1,
      "rating": 10,
      "location": "Where in the article the change goes",
      "context": "Why the reader is receptive to the link at this point",
      "old_text": "Existing text to modify, or empty for new content",
      "new_text": "<p>Complete HTML element with the <a href='%[1]s'>%[2]s</a> link integrated.</p>",
      "reasoning": "Why this placement works for SEO and for the reader",
      "user_value": "What the reader gains from following the link here"
    }
  ],
  "article_type": "Kind of article",
  "reader_intent": "What the reader is trying to achieve",
  "best_strategy": "Overall placement strategy"
}`

// buildPrompt assembles the single user instruction sent to the model.
func buildPrompt(req ports.AnalysisRequest, contentLimit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert SEO and content strategist. Analyze the HTML article below and find the best places to add a link to %q using anchor text related to %q.\n\n", req.TargetURL, req.Keyword)

	b.WriteString("HTML content:\n")
	b.WriteString(truncate(req.Content, contentLimit))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Target URL: %s\n", req.TargetURL)
	fmt.Fprintf(&b, "Main keyword: %s\n\n", req.Keyword)

	if outline, err := htmldoc.Inspect(req.Content, req.TargetURL); err == nil {
		b.WriteString("Article outline:\n")
		b.WriteString(outline.String())
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Find exactly %d link placement opportunities and rate each from 1 to 10, where 10 is a perfect contextual fit that adds real value for the reader.\n", req.OpportunityCount)
	b.WriteString("If no natural 9-10 placement exists, propose new or rewritten content that creates one.\n")
	b.WriteString("For every opportunity give: rating, location (precise section or paragraph), context, old_text (empty when adding new content), new_text (the COMPLETE HTML element with the link, never a diff), reasoning and user_value.\n")

	if custom := strings.TrimSpace(req.CustomPrompt); custom != "" {
		b.WriteString("\nAdditional instructions:\n")
		b.WriteString(custom)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond ONLY with a valid JSON object in exactly this format:\n")
	fmt.Fprintf(&b, responseShape, req.TargetURL, req.Keyword)
	b.WriteString("\n\nDO NOT OUTPUT ANYTHING OTHER THAN THE JSON OBJECT.")

	return b.String()
}

// truncate keeps the first limit characters of content.
func truncate(content string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}
	return string([]rune(content)[:limit])
}
