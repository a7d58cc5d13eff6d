// Package observability provides logger construction and human-readable report output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/skillbridge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the number of cells in a level bar
	barWidth = 20
)

// Printer handles formatted output for the CLI summary format
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// bar draws level as a fixed-width bar with the required level marked
func bar(current, required int) string {
	cells := []rune(strings.Repeat("░", barWidth))
	filled := current * barWidth / 100
	for i := 0; i < filled && i < barWidth; i++ {
		cells[i] = '█'
	}
	mark := required * barWidth / 100
	if mark >= barWidth {
		mark = barWidth - 1
	}
	cells[mark] = '│'
	return string(cells)
}

// PrintAnalysis outputs the score, summary, skills, roadmap and projects of a report.
func (p *Printer) PrintAnalysis(result *types.AnalysisResult) {
	if result == nil {
		return
	}
	p.PrintOverview(result)
	p.PrintSkills(result.SkillsAnalysis)
	p.PrintRoadmap(result.Roadmap)
	p.PrintProjects(result.RecommendedProjects)
}

// PrintOverview outputs the role, match score and wrapped summary.
func (p *Printer) PrintOverview(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:   %s\n", result.JobRole))
	sb.WriteString(fmt.Sprintf("Match:  %d%%\n", result.OverallMatchScore))
	if result.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(wrap(result.Summary, boxWidth-4), "\n"))
	}

	p.printBox("CAREER ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSkills outputs each skill's level against the requirement, gaps first.
func (p *Printer) PrintSkills(skills []types.SkillMetric) {
	if len(skills) == 0 {
		return
	}

	var gaps, proficient []types.SkillMetric
	for _, s := range skills {
		if s.Status == types.StatusProficient {
			proficient = append(proficient, s)
		} else {
			gaps = append(gaps, s)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d gaps, %d proficient\n\n", len(gaps), len(proficient)))
	for _, s := range append(gaps, proficient...) {
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", statusIcon(s.Status), s.Name, s.Category))
		sb.WriteString(fmt.Sprintf("  %s %3d/%d\n", bar(s.CurrentLevel, s.RequiredLevel), s.CurrentLevel, s.RequiredLevel))
	}

	p.printBox("SKILLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRoadmap outputs the roadmap phases with their first resources.
func (p *Printer) PrintRoadmap(steps []types.RoadmapStep) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	for i, step := range steps {
		sb.WriteString(fmt.Sprintf("%s  %s\n", step.WeekRange, step.PhaseTitle))
		if len(step.FocusSkills) > 0 {
			sb.WriteString(fmt.Sprintf("  Focus: %s\n", strings.Join(step.FocusSkills, ", ")))
		}
		count := min(len(step.Resources), 3)
		for j := 0; j < count; j++ {
			r := step.Resources[j]
			sb.WriteString(fmt.Sprintf("  • [%s] %s\n", r.Type, r.Title))
		}
		if len(step.Resources) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(step.Resources)-3))
		}
		if i < len(steps)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("LEARNING ROADMAP", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProjects outputs the recommended portfolio projects.
func (p *Printer) PrintProjects(projects []types.ProjectIdea) {
	if len(projects) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(projects), maxItemsToShow)
	for i := 0; i < count; i++ {
		proj := projects[i]
		sb.WriteString(fmt.Sprintf("%s [%s]\n", proj.Title, proj.Difficulty))
		if len(proj.Technologies) > 0 {
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(proj.Technologies, ", ")))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(projects) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more projects", len(projects)-maxItemsToShow))
	}

	p.printBox("RECOMMENDED PROJECTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintShareLink outputs the link for a saved report.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintShareLink(id, url string) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "🔗 REPORT SAVED "+id)
	if url != "" {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(url, boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}

func statusIcon(s types.SkillStatus) string {
	switch s {
	case types.StatusProficient:
		return "✓"
	case types.StatusMissing:
		return "✗"
	default:
		return "⚠"
	}
}

// wrap splits text into lines of at most width runes on word boundaries
func wrap(text string, width int) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
