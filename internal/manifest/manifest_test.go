package manifest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="English",LANGUAGE="en",DEFAULT=YES,URI="audio/en.m3u8"
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="French",LANGUAGE="fr",URI="audio/fr.m3u8"
#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="English",LANGUAGE="en",URI="subs/en.m3u8"
#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID="subs",NAME="Forced",LANGUAGE="en",FORCED=YES,URI="subs/forced.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=854x480,CODECS="avc1.4d401f,mp4a.40.2",FRAME-RATE=30.000,AUDIO="aud",SUBTITLES="subs"
video/480.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1600000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2",FRAME-RATE=30.000,AUDIO="aud",SUBTITLES="subs"
video/720.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:5
#EXTINF:9.9,
segment005.ts
#EXTINF:10.0,
segment006.ts
#EXTINF:10.1,
segment007.ts
#EXT-X-ENDLIST
`

func TestParseMaster(t *testing.T) {
	m, err := ParseMaster(strings.NewReader(masterPlaylist), "http://cdn.example.com/master.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(m.Records) != 2 {
		t.Fatalf("Expected 2 variant records, got %d", len(m.Records))
	}
	rec := m.Records[0]
	if rec.Bitrate != 800000 {
		t.Errorf("Expected bitrate 800000, got %d", rec.Bitrate)
	}
	if rec.Width != 854 || rec.Height != 480 {
		t.Errorf("Expected 854x480, got %dx%d", rec.Width, rec.Height)
	}
	if rec.FrameRate != 30 {
		t.Errorf("Expected frame rate 30, got %f", rec.FrameRate)
	}
	if rec.VideoCodec != "avc1.4d401f" || rec.AudioCodec != "mp4a.40.2" {
		t.Errorf("Expected split codecs, got video=%s audio=%s", rec.VideoCodec, rec.AudioCodec)
	}
	if rec.AudioGroup != "aud" || rec.TextGroup != "subs" {
		t.Errorf("Expected group references, got audio=%s text=%s", rec.AudioGroup, rec.TextGroup)
	}
	if rec.URI != "http://cdn.example.com/video/480.m3u8" {
		t.Errorf("Expected resolved URI, got %s", rec.URI)
	}
	if rec.Attrs["RESOLUTION"] != "854x480" {
		t.Errorf("Expected raw attrs echoed, got %v", rec.Attrs)
	}
}

func TestParseMaster_Tracks(t *testing.T) {
	m, err := ParseMaster(strings.NewReader(masterPlaylist), "http://cdn.example.com/master.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Renditions repeat per variant; the adapter dedups them.
	if len(m.AudioTracks) != 2 {
		t.Fatalf("Expected 2 audio tracks, got %d", len(m.AudioTracks))
	}
	if len(m.SubtitleTracks) != 2 {
		t.Fatalf("Expected 2 subtitle tracks, got %d", len(m.SubtitleTracks))
	}
	en := m.AudioTracks[0]
	if en.Name != "English" || en.Lang != "en" || !en.Default {
		t.Errorf("Unexpected first audio track: %+v", en)
	}
	if en.URI != "http://cdn.example.com/audio/en.m3u8" {
		t.Errorf("Expected resolved track URI, got %s", en.URI)
	}
	if m.SubtitleTracks[0].Forced {
		t.Errorf("Expected plain subtitle track not forced")
	}
	forced := m.SubtitleTracks[1]
	if forced.Name != "Forced" || !forced.Forced {
		t.Errorf("Expected forced subtitle track mapped, got %+v", forced)
	}
}

func TestParseMaster_RejectsMediaPlaylist(t *testing.T) {
	if _, err := ParseMaster(strings.NewReader(mediaPlaylist), "http://cdn.example.com/master.m3u8"); err == nil {
		t.Errorf("Expected error for media playlist input")
	}
}

func TestParseMedia(t *testing.T) {
	details, err := ParseMedia(strings.NewReader(mediaPlaylist), "http://cdn.example.com/video/480.m3u8", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if details.Live {
		t.Errorf("Expected ended playlist not to be live")
	}
	if details.MediaSequence != 5 {
		t.Errorf("Expected media sequence 5, got %d", details.MediaSequence)
	}
	if len(details.Fragments) != 3 {
		t.Fatalf("Expected 3 fragments, got %d", len(details.Fragments))
	}
	frag := details.Fragments[0]
	if frag.SN != 5 {
		t.Errorf("Expected first SN 5, got %d", frag.SN)
	}
	if frag.Duration != 9.9 {
		t.Errorf("Expected duration 9.9, got %f", frag.Duration)
	}
	if frag.LevelIndex != 1 {
		t.Errorf("Expected level index 1, got %d", frag.LevelIndex)
	}
	if frag.URL != "http://cdn.example.com/video/segment005.ts" {
		t.Errorf("Expected resolved segment URL, got %s", frag.URL)
	}
	if details.EndSN() != 7 {
		t.Errorf("Expected end SN 7, got %d", details.EndSN())
	}
}

func TestParseMedia_LivePlaylist(t *testing.T) {
	live := strings.TrimSuffix(mediaPlaylist, "#EXT-X-ENDLIST\n")
	details, err := ParseMedia(strings.NewReader(live), "http://cdn.example.com/video/480.m3u8", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !details.Live {
		t.Errorf("Expected playlist without end marker to be live")
	}
}

func TestFetchMaster(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(masterPlaylist))
	}))
	defer server.Close()

	m, err := FetchMaster(server.URL + "/master.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(m.Records) != 2 {
		t.Errorf("Expected 2 variant records, got %d", len(m.Records))
	}
	if m.Records[0].URI != server.URL+"/video/480.m3u8" {
		t.Errorf("Expected URI resolved against request URL, got %s", m.Records[0].URI)
	}
}

func TestFetchMaster_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := FetchMaster(server.URL + "/missing.m3u8"); err == nil {
		t.Errorf("Expected error for HTTP 404")
	}
}
