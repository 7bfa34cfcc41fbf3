// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package hls

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/matryer/is"
)

const masterFixture = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-INDEPENDENT-SEGMENTS
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="English",LANGUAGE="en",DEFAULT=YES,AUTOSELECT=YES,URI="audio/en.m3u8"
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="Deutsch",LANGUAGE="de",DEFAULT=NO,AUTOSELECT=YES,URI="audio/de.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360,AUDIO="aud"
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720,AUDIO="aud"
mid/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,AUDIO="aud",NAME="Full HD"
high/index.m3u8
#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=200000,URI="iframe.m3u8"
`

const vodFixture = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:4.000,
seg0.ts
#EXTINF:4.000,
seg1.ts
#EXT-X-ENDLIST
`

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestParseManifestMultivariant(t *testing.T) {
	is := is.New(t)
	base := mustURL(t, "https://cdn.example.test/live/master.m3u8")

	m, err := parseManifest(base, []byte(masterFixture))
	is.NoErr(err)
	is.Equal(m.media, nil)
	is.Equal(len(m.levels), 3) // i-frame variant skipped

	is.Equal(m.levels[0].Height, 360)
	is.Equal(m.levels[0].Width, 640)
	is.Equal(m.levels[0].Bitrate, 800000)
	is.Equal(m.levels[0].URI, "https://cdn.example.test/live/low/index.m3u8")
	is.Equal(m.levels[2].Name, "Full HD")
	is.Equal(m.levels[2].Index, 2)

	is.Equal(len(m.audio), 2)
	is.Equal(m.audio[0].Language, "en")
	is.True(m.audio[0].Default)
	is.Equal(m.audio[1].Name, "Deutsch")
	is.Equal(m.audio[1].URI, "https://cdn.example.test/live/audio/de.m3u8")
	is.Equal(defaultAudio(m.audio), 0)
}

func TestParseManifestMediaPlaylist(t *testing.T) {
	is := is.New(t)
	base := mustURL(t, "https://cdn.example.test/vod/index.m3u8?token=abc")

	m, err := parseManifest(base, []byte(vodFixture))
	is.NoErr(err)
	is.True(m.media != nil)
	is.Equal(len(m.levels), 1)
	is.Equal(m.levels[0].URI, base.String())
	is.Equal(len(m.audio), 0)

	info := inspectMedia(m.media)
	is.True(!info.live)
	is.Equal(info.target, 4*time.Second)
	is.Equal(info.segments, 2)
	is.Equal(info.nextSeq, uint64(2))
}

func TestInspectLiveMedia(t *testing.T) {
	is := is.New(t)
	mp, err := parseMedia([]byte(liveFixture(41, 3)))
	is.NoErr(err)

	info := inspectMedia(mp)
	is.True(info.live)
	is.Equal(info.nextSeq, uint64(44))
	is.Equal(info.target, 2*time.Second)
}

func TestParseManifestRejectsNonPlaylist(t *testing.T) {
	is := is.New(t)
	_, err := parseManifest(mustURL(t, "https://x.test/a.m3u8"), []byte("<!doctype html><html><body>gateway</body></html>"))
	is.True(errors.Is(err, ErrNotPlaylist))
}

func TestParseMediaRejectsMultivariant(t *testing.T) {
	is := is.New(t)
	_, err := parseMedia([]byte(masterFixture))
	is.True(err != nil)
}

func TestIsPlaylist(t *testing.T) {
	is := is.New(t)
	is.True(isPlaylist([]byte("#EXTM3U\n")))
	is.True(isPlaylist([]byte("\xef\xbb\xbf#EXTM3U\n#EXT-X-VERSION:3\n")))
	is.True(isPlaylist([]byte("\r\n  #EXTM3U\n")))
	is.True(!isPlaylist([]byte("{\"error\":\"not found\"}")))
	is.True(!isPlaylist(nil))
}

func TestPickAutoLevel(t *testing.T) {
	is := is.New(t)
	levels := []ports.EngineLevel{
		{Index: 0, Bitrate: 2_400_000},
		{Index: 1, Bitrate: 800_000},
		{Index: 2, Bitrate: 5_000_000},
	}
	is.Equal(pickAutoLevel(levels, 0), 2)
	is.Equal(pickAutoLevel(levels, 3_000_000), 0)
	is.Equal(pickAutoLevel(levels, 1_000_000), 1)
	is.Equal(pickAutoLevel(levels, 100), 1) // nothing fits: lowest
	is.Equal(pickAutoLevel(nil, 0), -1)
}

func TestParseResolution(t *testing.T) {
	is := is.New(t)
	w, h := parseResolution("1920x1080")
	is.Equal(w, 1920)
	is.Equal(h, 1080)
	w, h = parseResolution(" 640X360 ")
	is.Equal(w, 640)
	is.Equal(h, 360)
	w, h = parseResolution("hd")
	is.Equal(w, 0)
	is.Equal(h, 0)
}
