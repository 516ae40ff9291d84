package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		project   Project
		completed int
		want      ProjectStatus
	}{
		{"never ingested", Project{Status: ProjectCreated}, 0, ProjectCreated},
		{"ready untouched", Project{Status: ProjectReady, TotalArticles: 3}, 0, ProjectReady},
		{"partial", Project{Status: ProjectProcessing, TotalArticles: 3}, 2, ProjectProcessing},
		{"all done", Project{Status: ProjectProcessing, TotalArticles: 3}, 3, ProjectCompleted},
		{"count dropped", Project{Status: ProjectCompleted, TotalArticles: 3}, 2, ProjectProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.project.Progress(tt.completed))
		})
	}
}

func TestArticleStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, ArticlePending.Terminal())
	assert.False(t, ArticleAnalyzing.Terminal())
	assert.True(t, ArticleCompleted.Terminal())
	assert.True(t, ArticleError.Terminal())
}
