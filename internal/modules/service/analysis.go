package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/infra/genai"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

const analysisPrompt = "You are an expert project management AI. First infer " +
	"dependencies between the following project tasks from their title, " +
	"description and type; a task depends on another when it is a logical " +
	"next step. Then identify tasks on the critical path or at risk of " +
	"delay: a task is at risk when its due date is close, it sits on the " +
	"critical path, or many other tasks depend on it. For each task return " +
	"its dependencies (ids of the tasks it depends on), a risk_score from 0 " +
	"to 100, whether it is on the critical path, and a brief summary of " +
	"your findings. Return a JSON array of task objects and nothing else.\n\n" +
	"Project tasks:\n"

// insightSchema constrains the structured-output response so every element
// decodes into a TaskInsight.
var insightSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"task_id":          map[string]any{"type": "STRING"},
			"title":            map[string]any{"type": "STRING"},
			"dependencies":     map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
			"is_at_risk":       map[string]any{"type": "BOOLEAN"},
			"risk_score":       map[string]any{"type": "NUMBER"},
			"is_critical_path": map[string]any{"type": "BOOLEAN"},
			"summary":          map[string]any{"type": "STRING"},
		},
	},
}

// TaskInsight is one task's slice of the dependency network map.
type TaskInsight struct {
	TaskID         string   `json:"task_id"`
	Title          string   `json:"title"`
	Dependencies   []string `json:"dependencies"`
	IsAtRisk       bool     `json:"is_at_risk"`
	RiskScore      float64  `json:"risk_score"`
	IsCriticalPath bool     `json:"is_critical_path"`
	Summary        string   `json:"summary"`
}

type AnalysisService interface {
	AnalyzeProject(ctx context.Context, projectID uuid.UUID) ([]TaskInsight, error)
}

type analysisService struct {
	projects repo.ProjectRepo
	tasks    repo.TaskRepo
	ai       *genai.Client
}

func NewAnalysisService(projects repo.ProjectRepo, tasks repo.TaskRepo, ai *genai.Client) AnalysisService {
	return &analysisService{projects: projects, tasks: tasks, ai: ai}
}

// taskBrief is the per-task view handed to the model; relations and audit
// columns are noise for dependency inference.
type taskBrief struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	EstimatedHours *int       `json:"estimated_hours,omitempty"`
	DueDate        *string    `json:"due_date,omitempty"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id,omitempty"`
}

// AnalyzeProject asks the model to infer a dependency network map with risk
// scoring over the project's current tasks.
func (s *analysisService) AnalyzeProject(ctx context.Context, projectID uuid.UUID) ([]TaskInsight, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("project %s", projectID))
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	if len(tasks) == 0 {
		return []TaskInsight{}, nil
	}

	briefs := make([]taskBrief, 0, len(tasks))
	for _, t := range tasks {
		b := taskBrief{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Priority:       t.Priority,
			Type:           t.Type,
			Status:         t.Status,
			EstimatedHours: t.EstimatedHours,
			AssignedToID:   t.AssignedToID,
		}
		if t.DueDate != nil {
			d := t.DueDate.Format("2006-01-02")
			b.DueDate = &d
		}
		briefs = append(briefs, b)
	}

	raw, err := sonic.Marshal(briefs)
	if err != nil {
		return nil, fmt.Errorf("marshal task briefs: %w", err)
	}

	reply, err := s.ai.GenerateJSON(ctx, analysisPrompt+string(raw), insightSchema)
	if err != nil {
		return nil, err
	}

	var insights []TaskInsight
	if err := sonic.Unmarshal([]byte(reply), &insights); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w: %w", apperr.ErrUpstream, err)
	}
	return insights, nil
}
