package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Registry.Unregister", ErrAgentBusy, "agent 'scraper'")
	want := "Registry.Unregister: agent 'scraper': agent is busy"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Queue.Push", ErrQueueFull, "")
	want := "Queue.Push: request queue is full"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Manager.GetRequestResult", ErrTimeout, "req-1")
	if !errors.Is(err, ErrTimeout) {
		t.Error("errors.Is should match ErrTimeout")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := NewSubSystemError("registry", "Registry.Info", ErrNotFound, "agent 'x'")
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should match *DomainError")
	}
	if de.Op != "Registry.Info" {
		t.Errorf("Op = %q, want %q", de.Op, "Registry.Info")
	}
	if de.SubSystem != "registry" {
		t.Errorf("SubSystem = %q, want %q", de.SubSystem, "registry")
	}
}

func TestWrapOp(t *testing.T) {
	if WrapOp("op", nil) != nil {
		t.Error("WrapOp(nil) should be nil")
	}
	err := WrapOp("Manager.StartAgent", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match ErrNotFound through WrapOp")
	}
	want := "Manager.StartAgent: not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestNoAgentAvailableText(t *testing.T) {
	// The recorded error string on an unservable request is load-bearing
	// for downstream consumers.
	if ErrNoAgentAvailable.Error() != "No available agent" {
		t.Errorf("got %q", ErrNoAgentAvailable.Error())
	}
}

func TestWrappedSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("openai: %w", ErrRateLimit)
	if !errors.Is(wrapped, ErrRateLimit) {
		t.Error("errors.Is should match ErrRateLimit")
	}
}
