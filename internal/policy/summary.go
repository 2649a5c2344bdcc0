package policy

import (
	"fmt"
	"strings"

	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
)

// Summary renders the plan as Markdown. Applied audit entries, when given,
// are listed after the parameter changes.
func (p Plan) Summary(applied []configtypes.AuditEntry) string {
	var sb strings.Builder
	title := p.Name
	if title == "" {
		title = "policy update"
	}
	fmt.Fprintf(&sb, "# Governance plan: %s\n\n", title)
	fmt.Fprintf(&sb, "- **Plan ID:** %s\n", p.ID)
	fmt.Fprintf(&sb, "- **Operations:** %d\n", len(p.Operations))
	if len(p.Ignored) > 0 {
		fmt.Fprintf(&sb, "- **Ignored parameters:** %s\n", strings.Join(p.Ignored, ", "))
	}
	sb.WriteString("\n## Parameter changes\n\n")
	if p.Empty() {
		sb.WriteString("No changes detected between manifest and current state.\n")
	}
	for _, op := range p.Operations {
		line := fmt.Sprintf("- **%s → %s:** %s → %s", op.Module, op.Parameter, op.From, op.To)
		if op.Unit != "" {
			line += " (" + op.Unit + ")"
		}
		sb.WriteString(line + "\n")
	}
	if len(applied) > 0 {
		sb.WriteString("\n## Audit entries\n\n")
		sb.WriteString("| Seq | Module key | Parameter key | Record hash |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, e := range applied {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
				e.Sequence, e.ModuleKey.TerminalString(), e.ParameterKey.TerminalString(), e.RecordHash)
		}
	}
	return sb.String()
}
