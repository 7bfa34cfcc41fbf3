// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package adapter

import (
	"fmt"
	"math"
	"strings"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var languageNamer = display.English.Languages()

// LanguageName returns the English display name of a BCP-47 tag, or "" when
// the tag is empty or unknown.
func LanguageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	return languageNamer.Name(t)
}

// TrackLabel picks engine name, then language name, then "Track N".
func TrackLabel(t ports.EngineAudioTrack, i int) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	if name := LanguageName(t.Language); name != "" {
		return name
	}
	return fmt.Sprintf("Track %d", i)
}

// LevelLabel picks engine name, then "<height>p", then "<kbps>kbps".
func LevelLabel(l ports.EngineLevel) string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return name
	}
	if l.Height > 0 {
		return fmt.Sprintf("%dp", l.Height)
	}
	return fmt.Sprintf("%dkbps", int(math.Round(float64(l.Bitrate)/1000)))
}

// MapAudioTracks converts engine tracks to session tracks. IDs are list positions.
func MapAudioTracks(in []ports.EngineAudioTrack) []model.AudioTrack {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.AudioTrack, len(in))
	for i, t := range in {
		out[i] = model.AudioTrack{ID: i, Label: TrackLabel(t, i), Language: t.Language}
	}
	return out
}

// MapLevels converts engine levels to session levels, without the auto entry.
func MapLevels(in []ports.EngineLevel) []model.QualityLevel {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.QualityLevel, len(in))
	for i, l := range in {
		out[i] = model.QualityLevel{ID: i, Label: LevelLabel(l), Height: l.Height, Bitrate: l.Bitrate}
	}
	return out
}
