package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v9.9.9"

	got := String()
	if !strings.HasPrefix(got, "v9.9.9 (commit: ") {
		t.Fatalf("String() = %q", got)
	}
}
