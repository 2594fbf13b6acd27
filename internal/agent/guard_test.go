package agent

import "testing"

func TestToolResultGuardRedactsSecrets(t *testing.T) {
	guard := &ToolResultGuard{MaxSize: DefaultMaxToolResultSize}
	input := []byte(`{"success":true,"note":"token: sk-abcdefghijklmnopqrstuvwx"}`)

	out := guard.Apply("web_search", input)
	if DetectSecrets(string(out)) {
		t.Fatalf("expected secret to be redacted, got %q", out)
	}
}

func TestToolResultGuardTruncatesOversizedOutput(t *testing.T) {
	guard := &ToolResultGuard{MaxSize: 64}
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'a'
	}
	input := append([]byte(`{"success":true,"note":"`), append(big, []byte(`"}`)...)...)

	out := guard.Apply("browse", input)
	if len(out) > 64 {
		t.Fatalf("expected truncated output within MaxSize, got %d bytes", len(out))
	}
}

func TestToolResultGuardWithholdsDenylistedTool(t *testing.T) {
	guard := &ToolResultGuard{Denylist: map[string]bool{"browse": true}}
	out := guard.Apply("browse", []byte(`{"success":true,"text":"sensitive page contents"}`))
	if string(out) != `{"success":true,"note":"output withheld"}` {
		t.Fatalf("expected withheld placeholder, got %q", out)
	}
}

func TestNilGuardPassesThrough(t *testing.T) {
	var guard *ToolResultGuard
	input := []byte(`{"success":true}`)
	out := guard.Apply("any_tool", input)
	if string(out) != string(input) {
		t.Fatalf("expected a nil guard to be a no-op, got %q", out)
	}
}
