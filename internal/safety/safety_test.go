package safety

import (
	"errors"
	"testing"

	"erlfix/internal/testkit"
)

func TestCheck(t *testing.T) {
	src := testkit.NewSource("m.erl", "f() -> 0 + 42.\ng() -> 0 % zero\n + 42.\n")
	hdr := src.Add("m.hrl", "-define(Z, 0 + 42).\n")
	db := src.Snapshot(nil)

	tests := []struct {
		name string
		err  error
		run  func() error
	}{
		{"clean", nil, func() error { return Check(db, src.File, src.Span("0 + 42")) }},
		{"comment", ErrCommentInRange, func() error { return Check(db, src.File, src.Span("0 % zero\n + 42")) }},
		{"cross file", ErrCrossFile, func() error { return Check(db, src.File, hdr.Span("0 + 42")) }},
		{"all", ErrCommentInRange, func() error {
			return CheckAll(db, src.File, src.Span("0 + 42"), src.Span("% zero"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("got %v, want %v", err, tt.err)
			}
		})
	}
}
