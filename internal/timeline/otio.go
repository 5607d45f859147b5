// Package timeline imports editorial cues from OpenTimelineIO (.otio) files.
package timeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotTimeline is returned for JSON that is not an OTIO timeline.
var ErrNotTimeline = errors.New("not an OpenTimelineIO timeline")

const defaultLabel = "Clip"

// Cue is one clip pulled from a timeline.
type Cue struct {
	Label string `json:"label"`
	Note  string `json:"note,omitempty"`
}

// Text is the block analyzed for this cue.
func (c Cue) Text() string {
	if c.Note == "" {
		return c.Label
	}
	return c.Label + ". " + c.Note
}

// ExtractCues reads an OTIO document and returns a cue per clip, in track
// order then clip order.
func ExtractCues(r io.Reader) ([]Cue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return ParseCues(data)
}

// ParseCues is ExtractCues over an in-memory document.
func ParseCues(data []byte) ([]Cue, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrNotTimeline)
	}

	doc := gjson.ParseBytes(data)
	if !strings.HasPrefix(doc.Get("OTIO_SCHEMA").String(), "Timeline.") {
		return nil, ErrNotTimeline
	}

	cues := []Cue{}
	doc.Get("tracks.children").ForEach(func(_, track gjson.Result) bool {
		track.Get("children").ForEach(func(_, item gjson.Result) bool {
			if strings.HasPrefix(item.Get("OTIO_SCHEMA").String(), "Clip.") {
				cues = append(cues, clipCue(item))
			}
			return true
		})
		return true
	})
	return cues, nil
}

func clipCue(clip gjson.Result) Cue {
	label := strings.TrimSpace(clip.Get("name").String())
	if label == "" {
		label = strings.TrimSpace(clip.Get("metadata.name").String())
	}
	if label == "" {
		label = defaultLabel
	}
	return Cue{
		Label: label,
		Note:  strings.TrimSpace(clip.Get("metadata.note").String()),
	}
}
