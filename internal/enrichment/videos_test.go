// ABOUTME: Tests for video recommendation parsing and snippet rendering
package enrichment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideos(t *testing.T) {
	videos, err := ParseVideos("abc|Box Breathing|Calm Channel; def | Sleep Story | Night ;")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, Video{ID: "abc", Title: "Box Breathing", ChannelTitle: "Calm Channel"}, videos[0])
	assert.Equal(t, "def", videos[1].ID)

	empty, err := ParseVideos("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseVideos("only-id")
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, NoEnrichment, Snippet(nil, 0))

	videos := []Video{
		{ID: "a1", Title: "Grounding 5-4-3-2-1", ChannelTitle: "Therapy in a Nutshell"},
		{ID: "b2", Title: "Body Scan", ChannelTitle: "Headspace"},
	}

	got := Snippet(videos, 3)
	assert.Contains(t, got, "Body Scan")
	assert.Contains(t, got, "Headspace")
	assert.Contains(t, got, "https://www.youtube.com/watch?v=b2")

	assert.Contains(t, Snippet(videos, -2), "Grounding")
	assert.Contains(t, Snippet(videos, -1), "Body Scan")
}

func TestSnippet_ExtremePicks(t *testing.T) {
	videos := []Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	for _, pick := range []int{math.MinInt, math.MinInt + 1, math.MaxInt} {
		assert.NotPanics(t, func() { Snippet(videos, pick) }, "pick %d", pick)
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource([]Video{{ID: "x", Title: "t", ChannelTitle: "c"}, {Title: "no id"}})

	videos, err := src.Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)

	videos[0].Title = "changed"
	again, _ := src.Videos(context.Background())
	assert.Equal(t, "t", again[0].Title)
}
