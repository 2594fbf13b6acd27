package agent

import "testing"

func TestSnifferPassesPlainTextThrough(t *testing.T) {
	var s Sniffer
	segments := s.Feed("hello there\n")
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Withheld {
		t.Fatal("plain text must not be withheld")
	}
	if segments[0].Text != "hello there\n" {
		t.Fatalf("unexpected text %q", segments[0].Text)
	}
}

func TestSnifferWithholdsNamedToolCallJSON(t *testing.T) {
	var s Sniffer
	segments := s.Feed(`{"name":"get_current_time","arguments":{"timezone":"UTC"}}` + "\n")
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if !seg.Withheld {
		t.Fatal("a recognized tool-call line must be withheld")
	}
	if len(seg.Calls) != 1 || seg.Calls[0].Name != "get_current_time" {
		t.Fatalf("unexpected calls: %+v", seg.Calls)
	}
}

func TestSnifferInfersToolNameFromArgumentShape(t *testing.T) {
	var s Sniffer
	segments := s.Feed(`{"query":"weather in boston"}` + "\n")
	if len(segments) != 1 || !segments[0].Withheld {
		t.Fatalf("expected a withheld segment, got %+v", segments)
	}
	if segments[0].Calls[0].Name != "web_search" {
		t.Fatalf("expected inferred name web_search, got %q", segments[0].Calls[0].Name)
	}
}

func TestSnifferWaitsForInProgressJSON(t *testing.T) {
	var s Sniffer
	segments := s.Feed(`{"name":"browse",`)
	if len(segments) != 0 {
		t.Fatalf("expected no segments while JSON is incomplete, got %+v", segments)
	}

	segments = s.Feed(`"arguments":{"url":"https://example.com"}}` + "\n")
	if len(segments) != 1 || !segments[0].Withheld {
		t.Fatalf("expected the completed JSON to drain as withheld, got %+v", segments)
	}
}

func TestSnifferFinalFlushesRemainder(t *testing.T) {
	var s Sniffer
	// A JSON-looking start with no newline stays buffered until Final.
	s.Feed(`{"note": "partial, no closing brace`)
	segments := s.Final()
	if len(segments) != 1 {
		t.Fatalf("expected Final to flush the remaining buffer, got %d segments", len(segments))
	}
	if segments[0].Withheld {
		t.Fatal("non-JSON remainder must not be withheld")
	}
}

func TestSnifferIgnoresUnrecognizedJSONObject(t *testing.T) {
	var s Sniffer
	segments := s.Feed(`{"foo":"bar"}` + "\n")
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Withheld {
		t.Fatal("an object with no recognizable tool shape must pass through as text")
	}
}
