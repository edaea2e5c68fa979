// ABOUTME: Optional content-enrichment collaborator for reply prompts
// ABOUTME: Turns a list of video records into a single recommendation snippet
package enrichment

import (
	"context"
	"fmt"
	"strings"
)

// NoEnrichment is placed in the prompt when no recommendation data is available
const NoEnrichment = "No video recommendations are available right now."

// Video is a content recommendation record
type Video struct {
	ID           string `mapstructure:"id" json:"id"`
	Title        string `mapstructure:"title" json:"title"`
	ChannelTitle string `mapstructure:"channel" json:"channelTitle"`
}

// URL returns the watch link for the video
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Source provides recommendation records. An empty result means "not available yet".
type Source interface {
	Videos(ctx context.Context) ([]Video, error)
}

// StaticSource serves a fixed list of videos
type StaticSource struct {
	videos []Video
}

// NewStaticSource creates a source over the given videos, dropping records without an id
func NewStaticSource(videos []Video) *StaticSource {
	kept := make([]Video, 0, len(videos))
	for _, v := range videos {
		if strings.TrimSpace(v.ID) != "" {
			kept = append(kept, v)
		}
	}
	return &StaticSource{videos: kept}
}

// Videos returns a copy of the configured list
func (s *StaticSource) Videos(ctx context.Context) ([]Video, error) {
	out := make([]Video, len(s.videos))
	copy(out, s.videos)
	return out, nil
}

// ParseVideos parses "id|title|channel" records separated by ";"
func ParseVideos(list string) ([]Video, error) {
	var videos []Video
	for _, rec := range strings.Split(list, ";") {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		parts := strings.Split(rec, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("video record %q: want id|title|channel", rec)
		}
		videos = append(videos, Video{
			ID:           strings.TrimSpace(parts[0]),
			Title:        strings.TrimSpace(parts[1]),
			ChannelTitle: strings.TrimSpace(parts[2]),
		})
	}
	return videos, nil
}

// Snippet renders one recommendation; pick selects the index modulo len(videos).
// With no videos it returns NoEnrichment.
func Snippet(videos []Video, pick int) string {
	if len(videos) == 0 {
		return NoEnrichment
	}
	n := len(videos)
	v := videos[((pick%n)+n)%n]
	return fmt.Sprintf("If it fits the conversation, you may recommend this video: %q by %s (%s)", v.Title, v.ChannelTitle, v.URL())
}
