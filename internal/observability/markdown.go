package observability

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jonathan/skillbridge/internal/types"
)

// Markdown renders a report as a Markdown document
func Markdown(result *types.AnalysisResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Analysis Report: %s\n\n", result.JobRole)
	fmt.Fprintf(&sb, "**Overall match:** %d%%\n\n", result.OverallMatchScore)
	if result.Summary != "" {
		fmt.Fprintf(&sb, "%s\n\n", result.Summary)
	}

	sb.WriteString("## Skills\n\n")
	sb.WriteString("| Skill | Category | Current | Required | Status |\n")
	sb.WriteString("|---|---|---:|---:|---|\n")
	for _, s := range result.SkillsAnalysis {
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %s |\n",
			escapeCell(s.Name), s.Category, s.CurrentLevel, s.RequiredLevel, s.Status)
	}
	sb.WriteString("\n")

	sb.WriteString("## Learning Roadmap\n\n")
	for _, step := range result.Roadmap {
		fmt.Fprintf(&sb, "### %s: %s\n\n", step.WeekRange, step.PhaseTitle)
		if step.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", step.Description)
		}
		if len(step.FocusSkills) > 0 {
			fmt.Fprintf(&sb, "*Focus:* %s\n\n", strings.Join(step.FocusSkills, ", "))
		}
		for _, r := range step.Resources {
			if r.URL != "" {
				fmt.Fprintf(&sb, "- **%s** [%s](%s): %s\n", r.Type, r.Title, r.URL, r.Description)
			} else {
				fmt.Fprintf(&sb, "- **%s** %s: %s\n", r.Type, r.Title, r.Description)
			}
		}
		if len(step.Resources) > 0 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString("## Recommended Projects\n\n")
	for _, proj := range result.RecommendedProjects {
		fmt.Fprintf(&sb, "### %s (%s)\n\n", proj.Title, proj.Difficulty)
		fmt.Fprintf(&sb, "%s\n\n", proj.Description)
		if len(proj.Technologies) > 0 {
			fmt.Fprintf(&sb, "*Technologies:* %s\n\n", strings.Join(proj.Technologies, ", "))
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderTerminal styles Markdown for a terminal of the given width
func RenderTerminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
