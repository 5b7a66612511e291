package playlist

import "testing"

func makeDetails(mediaSequence uint64, count int, live bool) *LevelDetails {
	d := &LevelDetails{
		Live:           live,
		TargetDuration: 6,
		MediaSequence:  mediaSequence,
	}
	for i := 0; i < count; i++ {
		d.Fragments = append(d.Fragments, &Fragment{
			URL:      "seg.ts",
			Duration: 6,
			SN:       mediaSequence + uint64(i),
		})
	}
	return d
}

func TestEndSN(t *testing.T) {
	d := makeDetails(10, 5, true)
	if got := d.EndSN(); got != 14 {
		t.Errorf("Expected end SN 14, got %d", got)
	}
	empty := makeDetails(10, 0, true)
	if got := empty.EndSN(); got != 10 {
		t.Errorf("Expected end SN 10 for empty playlist, got %d", got)
	}
}

func TestMergeDetails_PrependsSkippedFragments(t *testing.T) {
	previous := makeDetails(0, 10, true)
	delta := makeDetails(2, 0, true)
	delta.Skipped = 6
	for sn := uint64(8); sn < 12; sn++ {
		delta.Fragments = append(delta.Fragments, &Fragment{SN: sn, Duration: 6})
	}

	if !MergeDetails(previous, delta) {
		t.Fatalf("Expected merge to succeed")
	}
	if delta.Skipped != 0 {
		t.Errorf("Expected skipped cleared, got %d", delta.Skipped)
	}
	if len(delta.Fragments) != 10 {
		t.Fatalf("Expected 10 fragments after merge, got %d", len(delta.Fragments))
	}
	if delta.Fragments[0].SN != 2 || delta.Fragments[9].SN != 11 {
		t.Errorf("Expected SN range 2..11, got %d..%d", delta.Fragments[0].SN, delta.Fragments[9].SN)
	}
}

func TestMergeDetails_NoPreviousState(t *testing.T) {
	delta := makeDetails(2, 2, true)
	delta.Skipped = 4
	if MergeDetails(nil, delta) {
		t.Errorf("Expected merge to fail without previous details")
	}
}

func TestMergeDetails_SequenceGap(t *testing.T) {
	previous := makeDetails(0, 4, true) // holds SN 0..3
	delta := makeDetails(2, 0, true)
	delta.Skipped = 6 // first retained fragment is SN 8, gap at 4..7
	delta.Fragments = append(delta.Fragments, &Fragment{SN: 8})

	if MergeDetails(previous, delta) {
		t.Errorf("Expected merge to fail on sequence gap")
	}
}

func TestMergeDetails_NotADelta(t *testing.T) {
	previous := makeDetails(0, 4, true)
	full := makeDetails(2, 4, true)
	if MergeDetails(previous, full) {
		t.Errorf("Expected merge to refuse a full playlist")
	}
}

func TestNewDeliveryDirectives(t *testing.T) {
	if d := NewDeliveryDirectives(nil); d != nil {
		t.Errorf("Expected nil directives without previous details")
	}

	vod := makeDetails(0, 5, false)
	if d := NewDeliveryDirectives(vod); d != nil {
		t.Errorf("Expected nil directives for ended playlist")
	}

	live := makeDetails(10, 5, true)
	d := NewDeliveryDirectives(live)
	if d == nil {
		t.Fatalf("Expected directives for live playlist")
	}
	if d.MSN != 15 {
		t.Errorf("Expected MSN 15, got %d", d.MSN)
	}
	if d.Part != -1 {
		t.Errorf("Expected part -1, got %d", d.Part)
	}
	if d.SkipDelta {
		t.Errorf("Expected no skip request after a full playlist")
	}
}

func TestNewDeliveryDirectives_SkipAfterDelta(t *testing.T) {
	live := makeDetails(10, 5, true)
	live.Skipped = 3
	d := NewDeliveryDirectives(live)
	if d == nil || !d.SkipDelta {
		t.Fatalf("Expected skip request after a merged delta, got %+v", d)
	}

	live.DeltaUpdateFailed = true
	d = NewDeliveryDirectives(live)
	if d == nil || d.SkipDelta {
		t.Errorf("Expected full playlist request after delta failure, got %+v", d)
	}
}

func TestDeliveryDirectives_AppendTo(t *testing.T) {
	d := &DeliveryDirectives{MSN: 15, Part: -1, SkipDelta: true}
	got := d.AppendTo("http://cdn.example.com/video.m3u8")
	want := "http://cdn.example.com/video.m3u8?_HLS_msn=15&_HLS_skip=YES"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	// Existing query uses & as separator.
	got = d.AppendTo("http://cdn.example.com/video.m3u8?token=abc")
	want = "http://cdn.example.com/video.m3u8?token=abc&_HLS_msn=15&_HLS_skip=YES"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	// Nil directives are a pass-through.
	var none *DeliveryDirectives
	if got := none.AppendTo("u"); got != "u" {
		t.Errorf("Expected pass-through, got %s", got)
	}

	// All fields unset yields the original URI.
	empty := &DeliveryDirectives{MSN: -1, Part: -1}
	if got := empty.AppendTo("u"); got != "u" {
		t.Errorf("Expected original URI, got %s", got)
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("http://cdn.example.com/path/master.m3u8", "video/480.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "http://cdn.example.com/path/video/480.m3u8" {
		t.Errorf("Unexpected resolution: %s", got)
	}

	got, err = ResolveURL("http://cdn.example.com/path/master.m3u8", "https://other.example.com/abs.m3u8")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "https://other.example.com/abs.m3u8" {
		t.Errorf("Expected absolute URL preserved, got %s", got)
	}
}
