//go:build tlbcache_debug

package tlbcache

import (
	"strings"
	"testing"
)

func mustPanic(t *testing.T, want string, operation func()) {
	t.Helper()
	defer func() {
		t.Helper()
		recovered := recover()
		message, ok := recovered.(string)
		if !ok || !strings.Contains(message, want) {
			t.Fatalf(
				"expected assertion failure"+
					"\n\tgot: %v"+
					"\n\twant: %q",
				recovered, want)
		}
	}()
	operation()
}

func TestDebugAssertions(t *testing.T) {
	t.Run("upsert with duplicates", func(t *testing.T) {
		table := newTable(t, 0)
		if err := table.upsert(1, 1); err != nil {
			t.Fatal(err)
		}
		link(t, table, 1, 2)
		// Only the first stale entry is evicted,
		// so the hand-linked duplicate survives.
		mustPanic(t, "duplicate entries", func() {
			_ = table.upsert(1, 3)
		})
	})
	t.Run("invalidate with duplicates", func(t *testing.T) {
		table := newTable(t, 0)
		if err := table.upsert(5, 1); err != nil {
			t.Fatal(err)
		}
		link(t, table, 5, 2)
		mustPanic(t, "left an entry", func() {
			_, _ = table.invalidate(5)
		})
	})
	t.Run("reset with live entries", func(t *testing.T) {
		table := newTable(t, 0)
		if err := table.upsert(9, 1); err != nil {
			t.Fatal(err)
		}
		mustPanic(t, "live entries", func() {
			table.reset(Read, table.index, 0)
		})
	})
	t.Run("consistent table", func(t *testing.T) {
		table := newTable(t, 0)
		for page := range uint32(64) {
			if err := table.upsert(page, page+1); err != nil {
				t.Fatal(err)
			}
			if err := table.upsert(page, page+2); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := table.invalidate(3); err != nil {
			t.Fatal(err)
		}
		if _, err := table.teardown(); err != nil {
			t.Fatal(err)
		}
	})
}
