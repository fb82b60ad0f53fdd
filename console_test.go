package main

import (
	"context"
	"strings"
	"testing"
)

func TestToggleOnEnter(t *testing.T) {
	n := 0
	toggleOnEnter(context.Background(), strings.NewReader("\n\nstop\n"), func() { n++ })
	if n != 3 {
		t.Errorf("toggled %d times, want 3", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n = 0
	toggleOnEnter(ctx, strings.NewReader("\n\n"), func() { n++ })
	if n != 0 {
		t.Errorf("toggled %d times after cancel, want 0", n)
	}
}
