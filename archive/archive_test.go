package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Travis-Britz/ircchat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	cat := ircchat.DefaultStatusCatalog()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		m := &ircchat.ChatMessage{
			Author: ircchat.Author{
				Name:   ircchat.TextRun{Text: "Ronni", Color: "#FF0000"},
				Status: []*ircchat.StatusItem{cat.Item(ircchat.GroupRole, ircchat.RoleModerator), nil, cat.Item(ircchat.GroupSubscriber, 0)},
			},
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Runs:      []ircchat.TextRun{{Text: text + " "}, {Text: "Kappa", Kind: ircchat.RunImage}},
		}
		_, err := s.Insert(ctx, "#Dallas", m)
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, "other", &ircchat.ChatMessage{Timestamp: base, Runs: []ircchat.TextRun{{Text: "elsewhere"}}})
	require.NoError(t, err)

	recs, err := s.Recent(ctx, "dallas", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "second Kappa", recs[0].Message)
	assert.Equal(t, "third Kappa", recs[1].Message)

	r := recs[1]
	assert.Equal(t, "dallas", r.Channel)
	assert.Equal(t, "Ronni", r.Username)
	assert.Equal(t, "normal", r.Kind)
	assert.Equal(t, "#FF0000", r.Color)
	assert.Equal(t, "Mod,Sub", r.Badges)
	assert.Equal(t, "Kappa", r.Emotes)
	assert.True(t, base.Add(2*time.Second).Equal(r.Timestamp))
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	recs, err := s.Recent(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
