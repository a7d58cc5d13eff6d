// Package types provides type definitions for structured data used throughout the skillbridge system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Enum is implemented by the closed string sets of the analysis schema.
type Enum interface {
	IsValid() bool
}

// SkillCategory groups a skill for display
type SkillCategory string

// Skill categories
const (
	CategoryTechnical SkillCategory = "Technical"
	CategorySoftSkill SkillCategory = "Soft Skill"
	CategoryTool      SkillCategory = "Tool"
)

// SkillCategories lists every valid SkillCategory in schema order.
var SkillCategories = []SkillCategory{CategoryTechnical, CategorySoftSkill, CategoryTool}

// IsValid reports whether c is one of the declared categories.
func (c SkillCategory) IsValid() bool {
	for _, v := range SkillCategories {
		if c == v {
			return true
		}
	}
	return false
}

// SkillStatus classifies the candidate's standing on a skill
type SkillStatus string

// Skill statuses
const (
	StatusProficient SkillStatus = "Proficient"
	StatusGap        SkillStatus = "Gap"
	StatusMissing    SkillStatus = "Missing"
)

// SkillStatuses lists every valid SkillStatus in schema order.
var SkillStatuses = []SkillStatus{StatusProficient, StatusGap, StatusMissing}

// IsValid reports whether s is one of the declared statuses.
func (s SkillStatus) IsValid() bool {
	for _, v := range SkillStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ResourceType is the kind of a learning resource
type ResourceType string

// Resource types
const (
	ResourceCourse        ResourceType = "Course"
	ResourceArticle       ResourceType = "Article"
	ResourceProject       ResourceType = "Project"
	ResourceDocumentation ResourceType = "Documentation"
)

// ResourceTypes lists every valid ResourceType in schema order.
var ResourceTypes = []ResourceType{ResourceCourse, ResourceArticle, ResourceProject, ResourceDocumentation}

// IsValid reports whether t is one of the declared resource types.
func (t ResourceType) IsValid() bool {
	for _, v := range ResourceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Difficulty rates a project idea
type Difficulty string

// Difficulty levels
const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Difficulties lists every valid Difficulty in schema order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// IsValid reports whether d is one of the declared difficulty levels.
func (d Difficulty) IsValid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// SkillMetric compares the candidate's level on one skill with the level the role requires.
// Status is Proficient exactly when CurrentLevel >= RequiredLevel; the model is asked to
// honor that, it is not recomputed locally.
type SkillMetric struct {
	Name          string        `json:"name" validate:"required"`
	CurrentLevel  int           `json:"currentLevel" validate:"gte=0,lte=100"`
	RequiredLevel int           `json:"requiredLevel" validate:"gte=0,lte=100"`
	Category      SkillCategory `json:"category" validate:"enum"`
	Status        SkillStatus   `json:"status" validate:"enum"`
}

// Consistent reports whether Status agrees with the two levels.
func (m SkillMetric) Consistent() bool {
	return (m.Status == StatusProficient) == (m.CurrentLevel >= m.RequiredLevel)
}

// LearningResource is a course, article, project or documentation page for a roadmap phase
type LearningResource struct {
	Title       string       `json:"title" validate:"required"`
	Type        ResourceType `json:"type" validate:"enum"`
	URL         string       `json:"url,omitempty"` // A real URL when known, otherwise a search query
	Description string       `json:"description" validate:"required"`
}

// RoadmapStep is one phase of the learning roadmap
type RoadmapStep struct {
	WeekRange   string             `json:"weekRange" validate:"required"` // e.g. "Weeks 1-2"
	PhaseTitle  string             `json:"phaseTitle" validate:"required"`
	Description string             `json:"description" validate:"required"`
	FocusSkills []string           `json:"focusSkills" validate:"required"`
	Resources   []LearningResource `json:"resources" validate:"required,dive"`
}

// ProjectIdea is a portfolio project recommended for the role
type ProjectIdea struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description" validate:"required"`
	Technologies []string   `json:"technologies" validate:"required"`
	Difficulty   Difficulty `json:"difficulty" validate:"enum"`
}

// AnalysisResult is the complete skill-gap report for one resume and target role.
// It is created once per successful analysis or report lookup and never mutated afterwards.
type AnalysisResult struct {
	JobRole             string        `json:"jobRole" validate:"required"`
	OverallMatchScore   int           `json:"overallMatchScore" validate:"gte=0,lte=100"`
	Summary             string        `json:"summary" validate:"required"`
	SkillsAnalysis      []SkillMetric `json:"skillsAnalysis" validate:"required,min=1,dive"`
	Roadmap             []RoadmapStep `json:"roadmap" validate:"required,min=1,dive"`
	RecommendedProjects []ProjectIdea `json:"recommendedProjects" validate:"required,min=1,dive"`
}

// Validate checks every field of the result against the closed enums, ranges and required fields.
func (r *AnalysisResult) Validate() error {
	return validate.Struct(r)
}

// InconsistentSkills returns the names of skills whose status disagrees with their levels.
func (r *AnalysisResult) InconsistentSkills() []string {
	var names []string
	for _, m := range r.SkillsAnalysis {
		if !m.Consistent() {
			names = append(names, m.Name)
		}
	}
	return names
}

// validate is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = NewValidator()

// NewValidator returns a validator that understands the "enum" tag and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(Enum)
		return ok && e.IsValid()
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
