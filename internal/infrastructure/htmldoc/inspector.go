package htmldoc

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHeadings = 20

// Outline summarises the structure of an article body.
type Outline struct {
	Headings    []string
	Paragraphs  int
	Links       int
	TargetLinks int
	Words       int
}

// Inspect parses HTML content and counts the elements relevant for link
// placement. TargetLinks counts anchors pointing at targetURL.
func Inspect(content, targetURL string) (Outline, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return Outline{}, fmt.Errorf("parse document: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var outline Outline
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(outline.Headings) >= maxHeadings {
			return false
		}
		if text := collapse(s.Text()); text != "" {
			outline.Headings = append(outline.Headings, text)
		}
		return true
	})

	outline.Paragraphs = doc.Find("p").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return collapse(s.Text()) != ""
	}).Length()

	target := normalizeURL(targetURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		outline.Links++
		href, _ := s.Attr("href")
		if target != "" && normalizeURL(href) == target {
			outline.TargetLinks++
		}
	})

	outline.Words = len(strings.Fields(doc.Text()))
	return outline, nil
}

// String renders the outline as instruction-friendly lines.
func (o Outline) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Paragraphs: %d, words: %d, links: %d\n", o.Paragraphs, o.Words, o.Links)
	fmt.Fprintf(&b, "Existing links to the target URL: %d\n", o.TargetLinks)
	if len(o.Headings) > 0 {
		b.WriteString("Headings:\n")
		for _, h := range o.Headings {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}
