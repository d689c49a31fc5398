package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// StructureGenerator produces the hierarchical course outline for a
// topic: main topics, subtopics, learning units.
type StructureGenerator interface {
	GenerateStructure(ctx context.Context, req types.GenerationRequest) (*types.CourseStructure, error)
}

type structureGenerator struct {
	log *logger.Logger
	ai  OpenAIClient
}

func NewStructureGenerator(log *logger.Logger, ai OpenAIClient) StructureGenerator {
	return &structureGenerator{
		log: log.With("service", "StructureGenerator"),
		ai:  ai,
	}
}

func (g *structureGenerator) GenerateStructure(ctx context.Context, req types.GenerationRequest) (*types.CourseStructure, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic required")
	}

	system := "You are an expert instructional designer. Produce a complete, well-ordered course outline for the requested topic. Keep titles short and descriptions one sentence each."
	user := fmt.Sprintf(
		"Topic: %s\nComplexity: %s\nDuration: %s\nLearning style: %s\n\nCreate a course outline with 3-6 main topics, each with 2-4 subtopics, each subtopic with 2-5 learning units.",
		req.Topic, req.Complexity, req.Duration, req.LearningStyle,
	)

	obj, err := g.ai.GenerateJSON(ctx, system, user, "course_structure", courseStructureSchema())
	if err != nil {
		return nil, fmt.Errorf("structure generation: %w", err)
	}

	var cs types.CourseStructure
	if err := remarshal(obj, &cs); err != nil {
		return nil, fmt.Errorf("structure decode: %w", err)
	}
	if cs.CourseTitle == "" || len(cs.MainTopics) == 0 {
		return nil, fmt.Errorf("structure incomplete: missing title or topics")
	}

	cs.Complexity = req.Complexity
	cs.Duration = req.Duration
	cs.LearningStyle = req.LearningStyle

	g.log.Info("Course structure generated",
		"title", cs.CourseTitle,
		"main_topics", len(cs.MainTopics),
		"subtopics", cs.SubtopicCount(),
	)
	return &cs, nil
}

func courseStructureSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"course_title": map[string]any{"type": "string"},
			"description":  map[string]any{"type": "string"},
			"main_topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"subtopics": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"title":       map[string]any{"type": "string"},
									"description": map[string]any{"type": "string"},
									"learning_units": map[string]any{
										"type":  "array",
										"items": map[string]any{"type": "string"},
									},
								},
								"required":             []string{"title", "description", "learning_units"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"title", "description", "subtopics"},
					"additionalProperties": false,
				},
			},
			"learning_outcomes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"course_title", "description", "main_topics", "learning_outcomes"},
		"additionalProperties": false,
	}
}

// remarshal converts the loosely-typed model output into a concrete
// struct via a JSON round trip.
func remarshal(in map[string]any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
