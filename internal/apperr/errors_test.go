package apperr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := E(UpstreamUnreachable, "tito.Dispatch", "", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("count flow: %w", base)

	if got := KindOf(wrapped); got != UpstreamUnreachable {
		t.Fatalf("kind=%v", got)
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatalf("cause lost")
	}
	if !errors.Is(wrapped, &Error{Kind: UpstreamUnreachable}) {
		t.Fatalf("expected kind match")
	}
	if errors.Is(wrapped, &Error{Kind: MalformedUpstreamResponse}) {
		t.Fatalf("unexpected kind match")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("kind=%v", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("kind=%v", got)
	}
}

func TestError_Message(t *testing.T) {
	err := E(MalformedUpstreamResponse, "tito.TicketCount", "missing events[0]", nil)
	msg := err.Error()
	for _, want := range []string{"tito.TicketCount", "malformed_upstream_response", "missing events[0]"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}
