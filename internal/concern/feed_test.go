package concern

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedRows(n int) []Concern {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]Concern, n)
	for i := range rows {
		// Newest first, matching backend ordering.
		rows[i] = Concern{
			ID:           fmt.Sprintf("c%d", n-i),
			CreatedAt:    base.Add(time.Duration(n-i) * time.Minute),
			GroupNumber:  "G1",
			ProjectTitle: "Alpha",
		}
	}
	return rows
}

func sortedDesc(t *testing.T, rows []Concern) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].CreatedAt.After(rows[i-1].CreatedAt),
			"list not descending at index %d", i)
	}
}

func TestFeedPush(t *testing.T) {
	t.Run("prepends and counts a live insert", func(t *testing.T) {
		f := NewFeed()
		f.Replace(feedRows(5))

		evt := Concern{ID: "x1", CreatedAt: time.Now().UTC()}
		require.True(t, f.Push(evt))

		rows := f.Snapshot()
		require.Len(t, rows, 6)
		assert.Equal(t, "x1", rows[0].ID)
		assert.Equal(t, 1, f.NewCount())
	})

	t.Run("drops duplicate ids", func(t *testing.T) {
		f := NewFeed()
		f.Replace(feedRows(3))

		evt := Concern{ID: "x1", CreatedAt: time.Now().UTC()}
		require.True(t, f.Push(evt))
		require.False(t, f.Push(evt))

		assert.Equal(t, 4, f.Len())
		assert.Equal(t, 1, f.NewCount())
	})

	t.Run("monotonic pushes keep descending order", func(t *testing.T) {
		f := NewFeed()
		f.Replace(feedRows(4))

		base := time.Now().UTC()
		for i := 0; i < 5; i++ {
			f.Push(Concern{ID: fmt.Sprintf("p%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)})
		}

		rows := f.Snapshot()
		require.Len(t, rows, 9)
		sortedDesc(t, rows)

		seen := map[string]bool{}
		for _, c := range rows {
			require.False(t, seen[c.ID], "duplicate id %s", c.ID)
			seen[c.ID] = true
		}
	})
}

func TestFeedReplace(t *testing.T) {
	f := NewFeed()
	f.Replace(feedRows(2))
	f.Push(Concern{ID: "x1", CreatedAt: time.Now().UTC()})
	require.Equal(t, 1, f.NewCount())

	f.Replace(feedRows(7))
	assert.Equal(t, 7, f.Len())
	assert.Equal(t, 0, f.NewCount(), "refresh resets the new-submission counter")
}

func TestFeedFilter(t *testing.T) {
	f := NewFeed()
	f.Replace([]Concern{
		{ID: "1", GroupNumber: "G1", ProjectTitle: "Alpha"},
		{ID: "2", GroupNumber: "G2", ProjectTitle: "Beta"},
		{ID: "3", GroupNumber: "G1", ProjectTitle: "Gamma"},
	})

	t.Run("matches group number case-insensitively", func(t *testing.T) {
		got := f.Filter("g1")
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
	})

	t.Run("matches project title", func(t *testing.T) {
		got := f.Filter("BETA")
		require.Len(t, got, 1)
		assert.Equal(t, "2", got[0].ID)
	})

	t.Run("is a pure projection", func(t *testing.T) {
		before := f.Snapshot()
		_ = f.Filter("g2")
		assert.Equal(t, before, f.Filter(""), "empty filter restores the full list")
		assert.Equal(t, before, f.Snapshot(), "filtering never mutates the source")
	})
}

func TestFeedConnected(t *testing.T) {
	f := NewFeed()
	assert.False(t, f.Connected())
	f.SetConnected(true)
	assert.True(t, f.Connected())
	f.SetConnected(false)
	assert.False(t, f.Connected())
}

// Refresh and push race on the same list; run -race catches unsynchronized
// access here.
func TestFeedConcurrentMutation(t *testing.T) {
	f := NewFeed()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f.Push(Concern{ID: fmt.Sprintf("w%d-%d", i, j), CreatedAt: time.Now().UTC()})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				f.Replace(feedRows(3))
				_ = f.Filter("g1")
				_ = f.NewCount()
			}
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, c := range f.Snapshot() {
		require.False(t, seen[c.ID])
		seen[c.ID] = true
	}
}
