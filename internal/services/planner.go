package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// PlanBuilder flattens a course structure into an ordered slide plan.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, structure *types.CourseStructure, req types.GenerationRequest) (*types.PresentationPlan, error)
}

type planBuilder struct {
	log *logger.Logger
	ai  OpenAIClient
}

func NewPlanBuilder(log *logger.Logger, ai OpenAIClient) PlanBuilder {
	return &planBuilder{
		log: log.With("service", "PlanBuilder"),
		ai:  ai,
	}
}

func (b *planBuilder) BuildPlan(ctx context.Context, structure *types.CourseStructure, req types.GenerationRequest) (*types.PresentationPlan, error) {
	if structure == nil || len(structure.MainTopics) == 0 {
		return nil, fmt.Errorf("course structure required")
	}

	slideTarget := "choose an appropriate count"
	if req.SlideCount != "" && req.SlideCount != "auto" {
		if n, err := strconv.Atoi(req.SlideCount); err == nil && n > 0 {
			slideTarget = fmt.Sprintf("exactly %d slides", n)
		}
	}

	var outline strings.Builder
	for _, mt := range structure.MainTopics {
		fmt.Fprintf(&outline, "- %s: %s\n", mt.Title, mt.Description)
		for _, st := range mt.Subtopics {
			fmt.Fprintf(&outline, "  - %s (%s)\n", st.Title, strings.Join(st.LearningUnits, ", "))
		}
	}

	system := "You are a presentation planner. Convert a course outline into an ordered slide plan. Start with a title slide, include an overview, use transition slides between main topics, end with a summary and conclusion. Slide numbers start at 1 and are consecutive."
	user := fmt.Sprintf(
		"Course: %s\nDescription: %s\nContent density: %s\nSlide count: %s\n\nOutline:\n%s",
		structure.CourseTitle, structure.Description, req.ContentDensity, slideTarget, outline.String(),
	)

	obj, err := b.ai.GenerateJSON(ctx, system, user, "presentation_plan", presentationPlanSchema())
	if err != nil {
		return nil, fmt.Errorf("plan generation: %w", err)
	}

	var plan types.PresentationPlan
	if err := remarshal(obj, &plan); err != nil {
		return nil, fmt.Errorf("plan decode: %w", err)
	}
	if len(plan.Slides) == 0 {
		return nil, fmt.Errorf("plan contains no slides")
	}

	// Renumber defensively; downstream stages index by slide number.
	for i := range plan.Slides {
		plan.Slides[i].SlideNumber = i + 1
	}
	if plan.PresentationTitle == "" {
		plan.PresentationTitle = structure.CourseTitle
	}

	b.log.Info("Presentation plan built",
		"title", plan.PresentationTitle,
		"slides", len(plan.Slides),
	)
	return &plan, nil
}

func presentationPlanSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"presentation_title": map[string]any{"type": "string"},
			"estimated_duration": map[string]any{"type": "string"},
			"slides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"slide_number": map[string]any{"type": "integer"},
						"title":        map[string]any{"type": "string"},
						"brief":        map[string]any{"type": "string"},
						"main_points": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"estimated_time": map[string]any{"type": "number"},
						"slide_type": map[string]any{
							"type": "string",
							"enum": []string{"title", "overview", "content", "transition", "summary", "conclusion"},
						},
					},
					"required":             []string{"slide_number", "title", "brief", "main_points", "estimated_time", "slide_type"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"presentation_title", "estimated_duration", "slides"},
		"additionalProperties": false,
	}
}
