package domain

import "time"

// ProjectStatus enumerates project lifecycle milestones.
type ProjectStatus string

const (
	ProjectCreated    ProjectStatus = "created"
	ProjectReady      ProjectStatus = "ready"
	ProjectProcessing ProjectStatus = "processing"
	ProjectCompleted  ProjectStatus = "completed"
)

// Project is a named batch of link-placement articles with progress counters.
type Project struct {
	ID                string
	Name              string
	TotalArticles     int
	CompletedArticles int
	Status            ProjectStatus
	CreatedAt         time.Time
}

// Progress derives the project status from a fresh completed-articles count.
// Projects that were never ingested keep their status.
func (p Project) Progress(completed int) ProjectStatus {
	if p.Status == ProjectCreated {
		return p.Status
	}
	if p.TotalArticles > 0 && completed >= p.TotalArticles {
		return ProjectCompleted
	}
	if p.Status == ProjectReady {
		return ProjectReady
	}
	return ProjectProcessing
}
