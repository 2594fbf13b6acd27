// Package tools implements the concrete Tool executors and the
// tier-filtered ToolRegistry consumed by the agent core, grounded on
// the original implementation's backend/app/services/tool_registry.py.
package tools

import (
	"encoding/json"

	"github.com/agentcore/core/internal/agent"
)

// Tier classifies a tool's default visibility, adapted from
// tool_registry.py's core/extra/mcp split (see DESIGN.md's
// "Supplemented feature note: tool tiers").
type Tier string

const (
	TierCore  Tier = "core"  // always advertised
	TierExtra Tier = "extra" // advertised only when a session opts in
)

type registered struct {
	tool agent.Tool
	tier Tier
}

// Registry implements agent.ToolRegistry with core tools always
// visible and extra tools visible only when named in a session's
// transient enable list.
type Registry struct {
	byName  map[string]registered
	order   []string
	enabled map[string]bool
}

var _ agent.ToolRegistry = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]registered)}
}

// Register adds tool at tier. Later calls with the same name replace
// the earlier registration.
func (r *Registry) Register(tool agent.Tool, tier Tier) {
	name := tool.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = registered{tool: tool, tier: tier}
}

// Get returns the tool registered under name, regardless of tier —
// a previously-advertised extra tool must still dispatch once called.
func (r *Registry) Get(name string) (agent.Tool, bool) {
	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return reg.tool, true
}

// Schemas returns every core tool's schema. Use ForSession to also
// include a session's opted-in extra tools.
func (r *Registry) Schemas() []agent.ToolSchema {
	return r.schemasFor(r.enabled)
}

// ForSession returns a Registry view scoped to core tools plus the
// named extra tools, mirroring tool_registry.py's per-session tool
// list assembly. The returned registry shares tool instances with r.
func (r *Registry) ForSession(extraEnabled []string) *Registry {
	enabled := make(map[string]bool, len(extraEnabled))
	for _, name := range extraEnabled {
		enabled[name] = true
	}
	scoped := NewRegistry()
	scoped.enabled = enabled
	for _, name := range r.order {
		reg := r.byName[name]
		if reg.tier == TierCore || enabled[name] {
			scoped.Register(reg.tool, reg.tier)
		}
	}
	return scoped
}

func (r *Registry) schemasFor(enabled map[string]bool) []agent.ToolSchema {
	out := make([]agent.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		reg := r.byName[name]
		if reg.tier != TierCore && !enabled[name] {
			continue
		}
		schema := reg.tool.Schema()
		out = append(out, agent.ToolSchema{
			Name:        reg.tool.Name(),
			Description: reg.tool.Description(),
			Parameters:  json.RawMessage(schema),
		})
	}
	return out
}
