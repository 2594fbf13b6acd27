package tools

import "testing"

func TestRegistrySchemasOnlyIncludeCoreTier(t *testing.T) {
	registry := NewRegistry()
	registry.Register(ReasoningTool{}, TierCore)
	registry.Register(WebSearchTool{}, TierExtra)

	schemas := registry.Schemas()
	if len(schemas) != 1 || schemas[0].Name != "reasoning" {
		t.Fatalf("expected only the core tool advertised, got %+v", schemas)
	}
}

func TestForSessionIncludesOptedInExtraTool(t *testing.T) {
	registry := NewRegistry()
	registry.Register(ReasoningTool{}, TierCore)
	registry.Register(WebSearchTool{}, TierExtra)
	registry.Register(BrowseTool{}, TierExtra)

	scoped := registry.ForSession([]string{"web_search"})
	schemas := scoped.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("expected core + opted-in extra tool, got %+v", schemas)
	}

	if _, ok := scoped.Get("browse"); ok {
		t.Fatal("expected browse to be excluded from an unscoped session")
	}
	if _, ok := scoped.Get("web_search"); !ok {
		t.Fatal("expected web_search to be reachable once opted in")
	}
}

func TestGetFindsToolRegardlessOfTier(t *testing.T) {
	registry := NewRegistry()
	registry.Register(BrowseTool{}, TierExtra)

	if _, ok := registry.Get("browse"); !ok {
		t.Fatal("Get must find a registered tool irrespective of tier")
	}
}
