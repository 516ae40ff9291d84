package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkStrategist/internal/config"
	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/ports"
)

const validResult = `{
  "opportunities": [
    {"id": 1, "rating": 10, "location": "intro", "context": "c1", "old_text": "",
     "new_text": "<p>See <a href='https://shop.example/243'>243 ballistics</a>.</p>", "reasoning": "r1", "user_value": "u1"},
    {"id": 7, "rating": 12, "location": "conclusion", "context": "c2", "old_text": "old",
     "new_text": "<p>new</p>", "reasoning": "r2", "user_value": "u2"}
  ],
  "article_type": "Comparison",
  "reader_intent": "Research",
  "best_strategy": "Post-data placement"
}`

type capturedRequest struct {
	header http.Header
	body   messagesRequest
}

func newTestServer(t *testing.T, status int, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.header = r.Header.Clone()
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &captured.body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func envelope(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"stop_reason": "end_turn",
		"content":     []map[string]string{{"type": "text", "text": text}},
	})
	require.NoError(t, err)
	return string(raw)
}

func newTestClient(endpoint string) *Client {
	return NewClient(config.AnalyzerConfig{
		Endpoint:  endpoint,
		Model:     "test-model",
		APIKey:    "test-key",
		MaxTokens: 2000,
		Timeout:   5 * time.Second,
	}, nil)
}

func analysisRequest() ports.AnalysisRequest {
	return ports.AnalysisRequest{
		Content:          "<h2>Ballistics</h2><p>These ballistics show the performance of both cartridges.</p>",
		TargetURL:        "https://shop.example/243",
		Keyword:          "243 ballistics",
		CustomPrompt:     "Prefer the conclusion section.",
		OpportunityCount: 2,
	}
}

func TestAnalyzeParsesValidReply(t *testing.T) {
	t.Parallel()

	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, envelope(t, validResult), &captured)

	result, err := newTestClient(server.URL).Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)

	require.Len(t, result.Opportunities, 2)
	assert.Equal(t, 1, result.Opportunities[0].ID)
	assert.Equal(t, 10, result.Opportunities[0].Rating)
	assert.Equal(t, 7, result.Opportunities[1].ID)
	assert.Equal(t, 12, result.Opportunities[1].Rating, "ratings are kept verbatim")
	assert.Equal(t, "old", result.Opportunities[1].OldText)
	assert.Equal(t, "Comparison", result.ArticleType)
	assert.Equal(t, "Research", result.ReaderIntent)
	assert.Equal(t, "Post-data placement", result.BestStrategy)
	assert.False(t, result.UsedFallback)
	assert.GreaterOrEqual(t, result.ProcessingTime, 0.0)

	assert.Equal(t, "test-key", captured.header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, captured.header.Get("anthropic-version"))
	assert.Equal(t, "test-model", captured.body.Model)
	assert.Equal(t, 2000, captured.body.MaxTokens)
	require.Len(t, captured.body.Messages, 1)
	assert.Equal(t, "user", captured.body.Messages[0].Role)

	prompt := captured.body.Messages[0].Content
	assert.Contains(t, prompt, "https://shop.example/243")
	assert.Contains(t, prompt, "243 ballistics")
	assert.Contains(t, prompt, "exactly 2 link placement opportunities")
	assert.Contains(t, prompt, "Prefer the conclusion section.")
	assert.Contains(t, prompt, `"best_strategy"`)
	assert.Contains(t, prompt, "Respond ONLY with a valid JSON object")
	assert.Contains(t, prompt, "- Ballistics")
}

func TestAnalyzeDefaultsMissingMetadata(t *testing.T) {
	t.Parallel()

	reply := `{"opportunities": []}`
	server := newTestServer(t, http.StatusOK, envelope(t, reply), nil)

	result, err := newTestClient(server.URL).Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)

	assert.Empty(t, result.Opportunities)
	assert.Equal(t, defaultArticleType, result.ArticleType)
	assert.Equal(t, defaultReaderIntent, result.ReaderIntent)
	assert.Equal(t, defaultBestStrategy, result.BestStrategy)
	assert.False(t, result.UsedFallback)
}

func TestAnalyzeAcceptsFencedJSON(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.StatusOK, envelope(t, "Here you go:\n```json\n"+validResult+"\n```"), nil)

	result, err := newTestClient(server.URL).Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)
	assert.Len(t, result.Opportunities, 2)
	assert.False(t, result.UsedFallback)
}

func TestAnalyzeFallsBackOnMalformedReply(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"prose":            envelope(t, "I found several great places to add the link, for example the intro."),
		"truncated json":   envelope(t, `{"opportunities": [{"id": 1, "rating": 10, "location": "intro"`),
		"missing field":    envelope(t, `{"opportunities": [{"id": 1, "rating": 10, "location": "l", "context": "c", "old_text": "", "reasoning": "r", "user_value": "u"}]}`),
		"wrong type":       envelope(t, `{"opportunities": [{"id": 1, "rating": "ten", "location": "l", "context": "c", "old_text": "", "new_text": "n", "reasoning": "r", "user_value": "u"}]}`),
		"no opportunities": envelope(t, `{"article_type": "Guide"}`),
		"not an envelope":  "<html>gateway says hi</html>",
		"no text block":    `{"content": []}`,
	}

	for name, reply := range cases {
		name, reply := name, reply
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, http.StatusOK, reply, nil)
			req := analysisRequest()

			result, err := newTestClient(server.URL).Analyze(context.Background(), req)
			require.NoError(t, err)

			require.Len(t, result.Opportunities, 1)
			opp := result.Opportunities[0]
			assert.Equal(t, 1, opp.ID)
			assert.Equal(t, 9, opp.Rating)
			assert.Contains(t, opp.NewText, req.TargetURL)
			assert.Contains(t, opp.NewText, req.Keyword)
			assert.Equal(t, 2.3, result.ProcessingTime)
			assert.True(t, result.UsedFallback)
		})
	}
}

func TestAnalyzeUpstreamStatusError(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.StatusInternalServerError, `{"type":"error","error":{"message":"overloaded"}}`, nil)

	_, err := newTestClient(server.URL).Analyze(context.Background(), analysisRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnalyzeTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	_, err := newTestClient(endpoint).Analyze(context.Background(), analysisRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestAnalyzeTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Analyze(context.Background(), analysisRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestAnalyzeCallerCancellationIsNotUpstreamFailure(t *testing.T) {
	t.Parallel()

	received := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(received)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-received
		cancel()
	}()

	_, err := newTestClient(server.URL).Analyze(ctx, analysisRequest())
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
}

func TestAnalyzeOversizedReplyFallsBack(t *testing.T) {
	t.Parallel()

	client := newTestClient("")
	client.maxTokens = 1
	padding := strings.Repeat("x", int(client.replyLimit()))
	server := newTestServer(t, http.StatusOK, envelope(t, validResult+padding), nil)
	client.endpoint = server.URL

	req := analysisRequest()
	result, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	require.Len(t, result.Opportunities, 1)
	assert.Contains(t, result.Opportunities[0].NewText, req.TargetURL)
}

func TestAnalyzeMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(config.AnalyzerConfig{Endpoint: "http://localhost", Model: "m"}, nil)
	_, err := client.Analyze(context.Background(), analysisRequest())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUpstream))
}

func TestAnalyzeDefaultsOpportunityCount(t *testing.T) {
	t.Parallel()

	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, envelope(t, validResult), &captured)

	req := analysisRequest()
	req.OpportunityCount = 0
	_, err := newTestClient(server.URL).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, captured.body.Messages[0].Content, "exactly 3 link placement opportunities")
}

func TestBuildPromptTruncatesContent(t *testing.T) {
	t.Parallel()

	req := analysisRequest()
	req.Content = strings.Repeat("é", 12000) + "TAIL-MARKER"

	prompt := buildPrompt(req, 12000)

	assert.NotContains(t, prompt, "TAIL-MARKER")
	assert.Contains(t, prompt, strings.Repeat("é", 12000))
	assert.Contains(t, prompt, "Additional instructions:\nPrefer the conclusion section.")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 0))
}
