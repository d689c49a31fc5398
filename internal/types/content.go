package types

// CourseStructure is the hierarchical outline produced by the structure
// generator: main topics, each with subtopics, each with learning units.
type CourseStructure struct {
	CourseTitle      string      `json:"course_title"`
	Description      string      `json:"description"`
	MainTopics       []MainTopic `json:"main_topics"`
	LearningOutcomes []string    `json:"learning_outcomes,omitempty"`
	Complexity       string      `json:"complexity,omitempty"`
	Duration         string      `json:"duration,omitempty"`
	LearningStyle    string      `json:"learning_style,omitempty"`
}

type MainTopic struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subtopics   []Subtopic `json:"subtopics"`
}

type Subtopic struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	LearningUnits []string `json:"learning_units"`
}

// SubtopicCount is how many subtopics the outline contains in total.
func (cs *CourseStructure) SubtopicCount() int {
	n := 0
	for _, t := range cs.MainTopics {
		n += len(t.Subtopics)
	}
	return n
}

// PresentationPlan flattens a course structure into an ordered slide
// sequence.
type PresentationPlan struct {
	PresentationTitle string      `json:"presentation_title"`
	EstimatedDuration string      `json:"estimated_duration"`
	Slides            []SlideSpec `json:"slides"`
}

// SlideSpec is the plan-level brief for one slide, before full content
// generation.
type SlideSpec struct {
	SlideNumber   int      `json:"slide_number"`
	Title         string   `json:"title"`
	Brief         string   `json:"brief"`
	MainPoints    []string `json:"main_points"`
	EstimatedTime float64  `json:"estimated_time"`
	SlideType     string   `json:"slide_type"` // title | overview | content | transition | summary | conclusion
}

type ImageStatus string

const (
	ImagePending     ImageStatus = "pending"
	ImageSuccess     ImageStatus = "success"
	ImagePlaceholder ImageStatus = "placeholder"
	ImageFailed      ImageStatus = "failed"
)

// ImageSpec describes one requested illustration. The image resolver
// fills FilePath, Status and Source in place.
type ImageSpec struct {
	Description string      `json:"description"`
	Position    string      `json:"position,omitempty"`
	Size        string      `json:"size,omitempty"`
	FilePath    string      `json:"file_path,omitempty"`
	Status      ImageStatus `json:"status,omitempty"`
	Source      string      `json:"source,omitempty"` // search | generated | placeholder
}

// SlideLayout carries structural hints for the document builder.
type SlideLayout struct {
	Template   string `json:"template,omitempty"`
	Background string `json:"background,omitempty"`
}

// SlideContent is the fully generated content for one slide. Created by
// the slide generator, image specs mutated in place by the image
// resolver, read-only afterwards.
type SlideContent struct {
	SlideNumber   int          `json:"slide_number"`
	Title         string       `json:"title"`
	Transcript    string       `json:"transcript"`
	Layout        SlideLayout  `json:"layout"`
	Images        []*ImageSpec `json:"images"`
	EstimatedTime float64      `json:"estimated_time"`
}

// TotalImageCount sums the image specs across a slide set.
func TotalImageCount(slides []*SlideContent) int {
	n := 0
	for _, s := range slides {
		if s != nil {
			n += len(s.Images)
		}
	}
	return n
}
