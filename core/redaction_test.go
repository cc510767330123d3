package core

import (
	"context"
	"testing"
)

func TestRedactSensitiveMapMasksCredentialFields(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"operation":     "admit",
		"mail":          "ada@example.com",
		"access_token":  "secret-token",
		"Authorization": "Bearer secret-token",
		"nested":        map[string]any{"refresh_token": "refresh", "status": "ok"},
		"events":        []any{map[string]any{"client_secret": "s"}},
	})

	if redacted["operation"] != "admit" || redacted["mail"] != "ada@example.com" {
		t.Fatalf("expected operational fields to remain visible, got %#v", redacted)
	}
	if redacted["access_token"] != RedactedValue || redacted["Authorization"] != RedactedValue {
		t.Fatalf("expected credential fields to be redacted, got %#v", redacted)
	}
	nested, ok := redacted["nested"].(map[string]any)
	if !ok || nested["refresh_token"] != RedactedValue || nested["status"] != "ok" {
		t.Fatalf("expected nested redaction, got %#v", redacted["nested"])
	}
	events, ok := redacted["events"].([]any)
	if !ok || events[0].(map[string]any)["client_secret"] != RedactedValue {
		t.Fatalf("expected slice members to be redacted, got %#v", redacted["events"])
	}
	if len(RedactSensitiveMap(nil)) != 0 {
		t.Fatalf("expected empty map for nil input")
	}
}

func TestCoordinatorLogsAreRedacted(t *testing.T) {
	logger := newCaptureLogger()
	coordinator := &Coordinator{logger: logger}

	coordinator.logInfo(context.Background(), "credential refreshed", map[string]any{
		"operation":    "refresh",
		"access_token": "leaked",
	})

	records := logger.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one log entry, got %d", len(records))
	}
	if records[0].fields["access_token"] != RedactedValue {
		t.Fatalf("expected access_token to be redacted, got %#v", records[0].fields["access_token"])
	}
	if records[0].fields["operation"] != "refresh" {
		t.Fatalf("expected operation to stay visible, got %#v", records[0].fields["operation"])
	}
}
