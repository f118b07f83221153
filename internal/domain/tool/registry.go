package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meteogram/meteogram/internal/domain/agent"
)

// Registry resolves tools by name and tracks which of them are sensitive,
// meaning a call must be confirmed by a human before execution.
type Registry struct {
	tools     map[string]Tool
	sensitive map[string]bool
}

// NewRegistry builds a registry. Names listed in sensitive gate the matching
// tool behind the approval workflow. The list comes from a comma-separated
// environment value, so entries are normalized before they are stored.
func NewRegistry(sensitive []string) *Registry {
	s := make(map[string]bool, len(sensitive))
	for _, name := range sensitive {
		if normalized := normalizeName(name); normalized != "" {
			s[normalized] = true
		}
	}
	return &Registry{
		tools:     make(map[string]Tool),
		sensitive: s,
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a tool. Registering two tools with the same name is a
// programming error.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool already registered: %s", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// IsSensitive reports whether the named tool requires confirmation.
func (r *Registry) IsSensitive(name string) bool {
	return r.sensitive[normalizeName(name)]
}

// Definitions returns provider-facing definitions for all registered tools
// in stable name order.
func (r *Registry) Definitions() []agent.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]agent.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Definition(r.tools[name]))
	}
	return defs
}
