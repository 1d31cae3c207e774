package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// StateOverlay marks routers on the graph with their published state.
type StateOverlay struct {
	// Visible names the routers currently visible.
	Visible []string
	// Cached names the routers holding a cache slot.
	Cached []string
}

// GenerateMermaid produces a Mermaid flowchart from a pre-order router listing.
// Shapes follow the router type:
// - root: ((Circle))
// - stack: [[Subroutine]]
// - feature: ([Stadium])
// - data: [/Parallelogram/]
// - default (scene and custom types): [Rectangle]
// Edges to path routers are solid, edges to query routers dotted.
func GenerateMermaid(routers []domain.RouterInfo, overlay *StateOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, r := range routers {
		safeID := sanitizeMermaidID(r.Name)

		opener, closer := "[", "]"
		switch r.Type {
		case domain.TypeRoot:
			opener, closer = "((", "))"
		case domain.TypeStack:
			opener, closer = "[[", "]]"
		case domain.TypeFeature:
			opener, closer = "([", "])"
		case domain.TypeData:
			opener, closer = "[/", "/]"
		}

		label := r.Name
		if r.Config.RouteKey != "" && r.Config.RouteKey != r.Name {
			label = fmt.Sprintf("%s <br/> 🔑 %s", r.Name, r.Config.RouteKey)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))

		if r.Parent == "" {
			continue
		}
		arrow := "-.->"
		if r.Config.IsPathRouter {
			arrow = "-->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(r.Parent), arrow, safeID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme.
		sb.WriteString("    classDef visible fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef cached fill:#e1f5fe,stroke:#01579b,stroke-dasharray:4,color:#000;\n")
		writeClass(&sb, overlay.Visible, "visible")
		writeClass(&sb, overlay.Cached, "cached")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		safeID := sanitizeMermaidID(name)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
