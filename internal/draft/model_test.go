package draft

import (
	"errors"
	"strings"
	"testing"
)

func TestNewCaseID(t *testing.T) {
	id, err := NewCaseID("  case-1  ")
	if err != nil {
		t.Fatalf("unexpected case id error: %v", err)
	}
	if id.String() != "case-1" {
		t.Fatalf("expected trimmed identifier, got %q", id.String())
	}

	if _, err := NewCaseID("   "); !errors.Is(err, ErrInvalidCaseID) {
		t.Fatalf("expected ErrInvalidCaseID for blank input, got %v", err)
	}
	if _, err := NewCaseID(strings.Repeat("a", 191)); !errors.Is(err, ErrInvalidCaseID) {
		t.Fatalf("expected ErrInvalidCaseID for oversized input, got %v", err)
	}
}

func TestNewClientID(t *testing.T) {
	id, err := NewClientID("client-a")
	if err != nil {
		t.Fatalf("unexpected client id error: %v", err)
	}
	if id.String() != "client-a" {
		t.Fatalf("expected identifier preserved, got %q", id.String())
	}

	if _, err := NewClientID(""); !errors.Is(err, ErrInvalidClientID) {
		t.Fatalf("expected ErrInvalidClientID for empty input, got %v", err)
	}
	if _, err := NewClientID(strings.Repeat("b", 191)); !errors.Is(err, ErrInvalidClientID) {
		t.Fatalf("expected ErrInvalidClientID for oversized input, got %v", err)
	}
}

func TestParseSaveReason(t *testing.T) {
	for raw, want := range map[string]SaveReason{
		"manual": SaveReasonManual,
		" AUTO ": SaveReasonAuto,
		"ai":     SaveReasonAI,
	} {
		got, err := ParseSaveReason(raw)
		if err != nil {
			t.Fatalf("unexpected parse error for %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}

	if _, err := ParseSaveReason("scheduled"); !errors.Is(err, ErrUnknownSaveReason) {
		t.Fatalf("expected ErrUnknownSaveReason, got %v", err)
	}
}

func TestParseChangeAction(t *testing.T) {
	for raw, want := range map[string]ChangeAction{
		"insert": ChangeActionInsert,
		"DELETE": ChangeActionDelete,
		" edit ": ChangeActionEdit,
	} {
		got, err := ParseChangeAction(raw)
		if err != nil {
			t.Fatalf("unexpected parse error for %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}

	if _, err := ParseChangeAction("replace"); !errors.Is(err, ErrUnknownChangeAction) {
		t.Fatalf("expected ErrUnknownChangeAction, got %v", err)
	}
}
