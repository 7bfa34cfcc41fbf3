// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package hls

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Eyevinn/hls-m3u8/m3u8"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/gabriel-vasile/mimetype"
)

const playlistMIME = "application/vnd.apple.mpegurl"

var (
	ErrNotPlaylist = errors.New("response is not an m3u8 playlist")
	ErrNoVariants  = errors.New("multivariant playlist has no playable variants")
)

// manifest is the decoded entry playlist.
type manifest struct {
	levels []ports.EngineLevel
	audio  []ports.EngineAudioTrack
	// media is set when the entry URL is itself a media playlist.
	media *m3u8.MediaPlaylist
}

// mediaInfo summarises one media playlist fetch.
type mediaInfo struct {
	live     bool
	target   time.Duration
	nextSeq  uint64
	segments int
}

// isPlaylist sniffs body for an m3u8 document.
func isPlaylist(body []byte) bool {
	if mimetype.Detect(body).Is(playlistMIME) {
		return true
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("#EXTM3U"))
}

func decodePlaylist(body []byte) (m3u8.Playlist, m3u8.ListType, error) {
	if !isPlaylist(body) {
		return nil, 0, ErrNotPlaylist
	}
	pl, typ, err := m3u8.DecodeFrom(bytes.NewReader(body), false)
	if err != nil {
		return nil, 0, fmt.Errorf("decode playlist: %w", err)
	}
	return pl, typ, nil
}

// parseManifest decodes the entry playlist. Variant and rendition URIs are
// resolved against base.
func parseManifest(base *url.URL, body []byte) (*manifest, error) {
	pl, typ, err := decodePlaylist(body)
	if err != nil {
		return nil, err
	}
	switch typ {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("decode playlist: unexpected type %T", pl)
		}
		return fromMaster(base, master)
	case m3u8.MEDIA:
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("decode playlist: unexpected type %T", pl)
		}
		return &manifest{
			levels: []ports.EngineLevel{{Index: 0, URI: base.String()}},
			media:  media,
		}, nil
	default:
		return nil, fmt.Errorf("decode playlist: unknown list type %d", typ)
	}
}

func fromMaster(base *url.URL, p *m3u8.MasterPlaylist) (*manifest, error) {
	m := &manifest{}
	seen := make(map[string]bool)
	for _, v := range p.Variants {
		if v == nil || v.Iframe || v.URI == "" {
			continue
		}
		w, h := parseResolution(v.Resolution)
		m.levels = append(m.levels, ports.EngineLevel{
			Index:   len(m.levels),
			Name:    v.Name,
			Width:   w,
			Height:  h,
			Bitrate: int(v.Bandwidth),
			URI:     resolve(base, v.URI),
		})
		for _, alt := range v.Alternatives {
			if alt == nil || !strings.EqualFold(alt.Type, "AUDIO") {
				continue
			}
			key := alt.GroupId + "\x00" + alt.Name + "\x00" + alt.Language + "\x00" + alt.URI
			if seen[key] {
				continue
			}
			seen[key] = true
			uri := ""
			if alt.URI != "" {
				uri = resolve(base, alt.URI)
			}
			m.audio = append(m.audio, ports.EngineAudioTrack{
				Index:    len(m.audio),
				Name:     alt.Name,
				Language: alt.Language,
				Default:  alt.Default,
				URI:      uri,
			})
		}
	}
	if len(m.levels) == 0 {
		return nil, ErrNoVariants
	}
	return m, nil
}

func parseMedia(body []byte) (*m3u8.MediaPlaylist, error) {
	pl, typ, err := decodePlaylist(body)
	if err != nil {
		return nil, err
	}
	media, ok := pl.(*m3u8.MediaPlaylist)
	if typ != m3u8.MEDIA || !ok {
		return nil, fmt.Errorf("decode playlist: expected media playlist, got list type %d", typ)
	}
	return media, nil
}

func inspectMedia(p *m3u8.MediaPlaylist) mediaInfo {
	info := mediaInfo{
		live:   !p.Closed,
		target: time.Duration(p.TargetDuration) * time.Second,
	}
	for _, seg := range p.Segments {
		if seg != nil {
			info.segments++
		}
	}
	info.nextSeq = p.SeqNo + uint64(info.segments)
	return info
}

// parseResolution parses "WxH".
func parseResolution(s string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return width, height
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// pickAutoLevel returns the highest-bandwidth level not above limit, or the
// lowest level when every level exceeds it. A zero limit means no cap.
func pickAutoLevel(levels []ports.EngineLevel, limit int) int {
	if len(levels) == 0 {
		return -1
	}
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return levels[order[a]].Bitrate < levels[order[b]].Bitrate
	})
	if limit <= 0 {
		return order[len(order)-1]
	}
	best := order[0]
	for _, i := range order {
		if levels[i].Bitrate <= limit {
			best = i
		}
	}
	return best
}

// defaultAudio returns the index of the DEFAULT rendition, the first one, or -1.
func defaultAudio(tracks []ports.EngineAudioTrack) int {
	for _, t := range tracks {
		if t.Default {
			return t.Index
		}
	}
	if len(tracks) > 0 {
		return 0
	}
	return -1
}
