// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

const (
	// AudioDefault selects whatever audio track the source marks as default.
	AudioDefault = -1
	// QualityAuto lets the engine pick the level adaptively.
	QualityAuto = -1
)

// AudioTrack is one selectable audio rendition.
type AudioTrack struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Language string `json:"language,omitempty"`
}

// QualityLevel is one selectable rendition. The auto pseudo-level carries
// QualityAuto as its ID and zero dimensions.
type QualityLevel struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	Height  int    `json:"height,omitempty"`
	Bitrate int    `json:"bitrate,omitempty"`
}

// AutoLevel is the pseudo-level prepended to every non-empty level list.
func AutoLevel() QualityLevel {
	return QualityLevel{ID: QualityAuto, Label: "Auto"}
}

// WithAuto returns levels with the auto pseudo-level first. An empty input
// stays empty.
func WithAuto(levels []QualityLevel) []QualityLevel {
	if len(levels) == 0 {
		return nil
	}
	out := make([]QualityLevel, 0, len(levels)+1)
	out = append(out, AutoLevel())
	for _, l := range levels {
		if l.ID == QualityAuto {
			continue
		}
		out = append(out, l)
	}
	return out
}

// HasAudioTrack reports whether id is the sentinel or present in tracks.
func HasAudioTrack(tracks []AudioTrack, id int) bool {
	if id == AudioDefault {
		return true
	}
	for _, t := range tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// HasQualityLevel reports whether id is the sentinel or present in levels.
func HasQualityLevel(levels []QualityLevel, id int) bool {
	if id == QualityAuto {
		return true
	}
	for _, l := range levels {
		if l.ID == id {
			return true
		}
	}
	return false
}
