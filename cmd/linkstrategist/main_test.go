package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/usecase"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"LINKSTRATEGIST_CONFIG", "DATABASE_DSN", "ANTHROPIC_API_KEY", "ANALYZER_MODEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reply := `{"opportunities":[{"id":1,"rating":7,"location":"second paragraph","context":"c",` +
			`"old_text":"Pack light.","new_text":"<p>Pack light with <a href='https://shop.example/packs'>packs</a>.</p>",` +
			`"reasoning":"fits","user_value":"saves time"}],` +
			`"article_type":"Guide","reader_intent":"Planning","best_strategy":"Inline"}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": reply}},
		})
	}))
	t.Cleanup(upstream.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "config.yaml")
	content := fmt.Sprintf(`database:
  driver: sqlite
  dsn: %s
analyzer:
  endpoint: %s
  apiKey: test-key
logging:
  level: error
`, filepath.Join(base, "cli.db"), upstream.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliTestEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

var createdPattern = regexp.MustCompile(`Created project .+ \(([0-9a-f-]+)\)`)

func TestCLIWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "project", "create", "Summer", "gear")
	require.NoError(t, err)
	match := createdPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)
	projectID := match[1]

	out, err = env.run(t, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Summer gear")
	assert.Contains(t, out, "0/0")

	batch := env.writeFile(t, "batch.csv", "From,To,Main KW\n"+
		"https://blog.example/hike,https://shop.example/packs,packs\n"+
		"https://blog.example/camp,https://shop.example/tents,tents\n")
	out, err = env.run(t, "ingest", projectID, batch)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully uploaded 2 articles")

	out, err = env.run(t, "articles", projectID, "--json")
	require.NoError(t, err)
	var articles []domain.Article
	require.NoError(t, json.Unmarshal([]byte(out), &articles))
	require.Len(t, articles, 2)

	html := env.writeFile(t, "article.html", "<h2>Packing</h2><p>Pack light.</p>")
	out, err = env.run(t, "analyze", articles[0].ID, html, "--json")
	require.NoError(t, err)
	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, 7, result.Opportunities[0].Rating)

	out, err = env.run(t, "export", projectID, "--format", "json")
	require.NoError(t, err)
	var export usecase.ExportResult
	require.NoError(t, json.Unmarshal([]byte(out), &export))
	assert.Equal(t, 1, export.TotalOpportunities)
	require.Len(t, export.Rows, 1)
	assert.Equal(t, "https://blog.example/hike", export.Rows[0].FromURL)
	assert.Equal(t, "packs", export.Rows[0].MainKeyword)

	out, err = env.run(t, "export", projectID)
	require.NoError(t, err)
	assert.Contains(t, out, "second paragraph")
	assert.Contains(t, out, "Total opportunities: 1")
}

func TestCLIErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "export", "missing", "--format", "json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.run(t, "export", "missing", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, err = env.run(t, "ingest", "missing", filepath.Join(env.baseDir, "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open batch")
}

func TestCLIIngestFormatOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "project", "create", "Export", "dump")
	require.NoError(t, err)
	match := createdPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)

	batch := env.writeFile(t, "batch.txt", "From,To,Main KW\nhttps://blog.example/a,https://shop.example/b,boots\n")

	_, err = env.run(t, "ingest", match[1], batch)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.run(t, "ingest", match[1], batch, "--format", "pdf")
	require.ErrorIs(t, err, domain.ErrValidation)

	out, err = env.run(t, "ingest", match[1], batch, "--format", "CSV")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully uploaded 1 articles")
}

func TestGridPadsAndTrimsRows(t *testing.T) {
	t.Parallel()

	columns := []column{{"A", text.AlignLeft, 0}, {"B", text.AlignRight, 0}}
	out := grid(columns, []table.Row{{"only"}, {"x", 2, "dropped"}})
	assert.Contains(t, out, "only")
	assert.NotContains(t, out, "dropped")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)

	assert.Empty(t, grid(nil, nil))
}

func TestRenderViews(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No projects", renderProjects(nil))

	articles := renderArticles([]domain.Article{
		{ID: "a1", OrderIndex: 0, FromURL: "https://blog.example/a", MainKeyword: "boots", Status: domain.ArticlePending},
		{ID: "a2", OrderIndex: 1, FromURL: "https://blog.example/b", MainKeyword: "tents", Status: domain.ArticleCompleted,
			Analysis: &domain.AnalysisResult{Opportunities: make([]domain.LinkOpportunity, 2)}},
	})
	assert.Contains(t, articles, "pending")
	assert.Contains(t, articles, "tents")
	assert.Contains(t, articles, "Opportunities")

	analysis := renderAnalysis(domain.AnalysisResult{
		ArticleType:   "Guide",
		ReaderIntent:  "Planning",
		BestStrategy:  "Inline",
		UsedFallback:  true,
		Opportunities: []domain.LinkOpportunity{{ID: 1, Rating: 5, Location: "intro", NewText: "<p>x</p>"}},
	})
	assert.True(t, strings.HasPrefix(analysis, "Guide for Planning readers; strategy: Inline\n"))
	assert.Contains(t, analysis, "fallback suggestion")
	assert.Contains(t, analysis, "intro")

	export := renderExport(usecase.ExportResult{TotalOpportunities: 0})
	assert.True(t, strings.HasSuffix(export, "Total opportunities: 0"))
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, printResult(cmd, true, map[string]int{"n": 1}, func() string { return "text view" }))
	assert.JSONEq(t, `{"n":1}`, out.String())

	out.Reset()
	require.NoError(t, printResult(cmd, false, nil, func() string { return "text view" }))
	assert.Equal(t, "text view\n", out.String())
}
