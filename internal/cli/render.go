package cli

import (
	"fmt"
	"sort"
	"strings"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/services/agents"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	agentStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(78)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	verdictStyles = map[models.Verdict]lipgloss.Style{
		models.VerdictClear:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		models.VerdictCaution: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EAB308")),
		models.VerdictWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		models.VerdictDanger:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
	}

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		models.SeverityCaution: lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")),
		models.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		models.SeverityDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
)

// Render formats an evaluation for a terminal.
func Render(res *models.EvaluationResult) string {
	var b strings.Builder
	o := res.Order
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s:%s %s %s (%s)",
		o.TransactionType, o.Exchange, o.Symbol, o.InstrumentType, o.ProductType, res.Horizon)))
	b.WriteString("\n")

	b.WriteString(renderAgent(agents.NameBehavioral, &res.Behavioral))
	for _, a := range []struct {
		name string
		r    *models.AgentResult
	}{
		{agents.NameStructure, res.Structure},
		{agents.NamePattern, res.Pattern},
		{agents.NameStation, res.Station},
	} {
		if a.r != nil {
			b.WriteString(renderAgent(a.name, a.r))
		}
	}

	if len(res.Errors) > 0 {
		keys := make([]string, 0, len(res.Errors))
		for k := range res.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(mutedStyle.Render("degraded sources:"))
		b.WriteString("\n")
		for _, k := range keys {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s: %s", k, res.Errors[k])))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderAgent(name string, r *models.AgentResult) string {
	var body strings.Builder
	if r.Unavailable {
		body.WriteString(fmt.Sprintf("%s  %s", strings.ToUpper(name), mutedStyle.Render("unavailable: "+r.Reason)))
		return agentStyle.Render(body.String()) + "\n"
	}

	vs, ok := verdictStyles[r.Verdict]
	if !ok {
		vs = lipgloss.NewStyle()
	}
	body.WriteString(fmt.Sprintf("%s  %s  risk %d/100  (%d checks)",
		strings.ToUpper(name), vs.Render(strings.ToUpper(string(r.Verdict))), r.RiskScore, len(r.Checks)))
	for _, f := range r.Triggered {
		ss, ok := severityStyles[f.Severity]
		if !ok {
			ss = lipgloss.NewStyle()
		}
		body.WriteString("\n")
		body.WriteString(fmt.Sprintf("  %s %s (+%d)", ss.Render(fmt.Sprintf("[%s]", f.Severity)), f.Title, f.RiskScore))
		if f.Detail != "" {
			body.WriteString("\n    ")
			body.WriteString(mutedStyle.Render(f.Detail))
		}
	}
	return agentStyle.Render(body.String()) + "\n"
}
