package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// StateMarkdown renders the router tree with its published state as a
// markdown table, one row per router in pre-order.
func StateMarkdown(location string, routers []domain.RouterInfo, state map[string]domain.RouterSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Location `%s`\n\n", location)
	sb.WriteString("| Router | Type | Visible | Data | Order |\n")
	sb.WriteString("|---|---|---|---|---|\n")

	for _, r := range routers {
		snap := state[r.Name]
		name := r.Name
		if r.Depth > 0 {
			name = strings.Repeat("··", r.Depth-1) + "↳ " + r.Name
		}
		visible := "·"
		if snap.Current.Visible {
			visible = "✅"
		}
		order := ""
		if snap.Current.Order > 0 {
			order = fmt.Sprint(snap.Current.Order)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", name, r.Type, visible, snap.Current.Data, order)
	}
	return sb.String()
}
