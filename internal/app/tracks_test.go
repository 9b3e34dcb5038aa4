package app

import (
	"fmt"
	"testing"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pion/webrtc/v4"
)

type stubTrack struct {
	id   string
	kind webrtc.RTPCodecType
}

func (s stubTrack) ID() string                { return s.id }
func (s stubTrack) StreamID() string          { return "remote" }
func (s stubTrack) Kind() webrtc.RTPCodecType { return s.kind }

func TestSnapshotNeverNil(t *testing.T) {
	snap := NewTrackRegistry().Snapshot(nil, nil)
	if snap[domain.ParticipantLocal] == nil || snap[domain.ParticipantBot] == nil {
		t.Fatalf("snapshot = %v", snap)
	}
	if snap.Get(domain.ParticipantBot, domain.TrackAudio) != nil {
		t.Fatal("empty slot should be absent")
	}
}

func TestStartedScreenSlots(t *testing.T) {
	r := NewTrackRegistry()
	cases := []struct {
		codec  webrtc.RTPCodecType
		screen bool
		want   domain.TrackKind
	}{
		{webrtc.RTPCodecTypeAudio, false, domain.TrackAudio},
		{webrtc.RTPCodecTypeVideo, false, domain.TrackVideo},
		{webrtc.RTPCodecTypeAudio, true, domain.TrackScreenAudio},
		{webrtc.RTPCodecTypeVideo, true, domain.TrackScreenVideo},
	}
	for i, c := range cases {
		kind, changed := r.Started(stubTrack{id: string(rune('a' + i)), kind: c.codec}, domain.ParticipantBot, c.screen)
		if kind != c.want || !changed {
			t.Errorf("case %d: kind=%s changed=%v, want %s", i, kind, changed, c.want)
		}
	}
}

func TestStartedIgnoresNilTrack(t *testing.T) {
	r := NewTrackRegistry()
	var remote *webrtc.TrackRemote
	if _, changed := r.Started(remote, domain.ParticipantBot, false); changed {
		t.Fatal("nil track reported as changed")
	}
	if r.Update(domain.ParticipantBot, domain.TrackAudio, remote) {
		t.Fatal("nil track stored in empty slot")
	}
	snap := r.Snapshot(nil, nil)
	if snap.Get(domain.ParticipantBot, domain.TrackAudio) != nil {
		t.Fatalf("snapshot = %v", snap)
	}
}

func TestSnapshotOverlaysLocalStream(t *testing.T) {
	r := NewTrackRegistry()
	r.Update(domain.ParticipantLocal, domain.TrackAudio, stubTrack{id: "old", kind: webrtc.RTPCodecTypeAudio})
	r.Update(domain.ParticipantLocal, domain.TrackScreenVideo, stubTrack{id: "screen", kind: webrtc.RTPCodecTypeVideo})

	mic := stubTrack{id: "mic", kind: webrtc.RTPCodecTypeAudio}
	snap := r.Snapshot(mic, nil)
	if got := snap.Get(domain.ParticipantLocal, domain.TrackAudio); got == nil || got.ID() != "mic" {
		t.Fatalf("local audio = %v", got)
	}
	if snap.Get(domain.ParticipantLocal, domain.TrackScreenVideo) == nil {
		t.Fatal("local screen track lost")
	}
	if snap.Get(domain.ParticipantLocal, domain.TrackVideo) != nil {
		t.Fatal("local video should be absent without a stream track")
	}

	r.Reset()
	if len(r.Snapshot(nil, nil)[domain.ParticipantLocal]) != 0 {
		t.Fatal("reset kept slots")
	}
}

func TestTrackDedupProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("re-reporting the stored track id never changes the snapshot", prop.ForAll(
		func(seq []int, screen bool) bool {
			r := NewTrackRegistry()
			stored := ""
			ids := make([]string, len(seq))
			for i, n := range seq {
				ids[i] = fmt.Sprintf("t%d", n)
			}
			for _, id := range ids {
				changed := r.Update(domain.ParticipantBot, SlotFor(webrtc.RTPCodecTypeVideo, screen), stubTrack{id: id, kind: webrtc.RTPCodecTypeVideo})
				if changed == (id == stored) {
					return false
				}
				stored = id
			}
			got := r.Snapshot(nil, nil).Get(domain.ParticipantBot, SlotFor(webrtc.RTPCodecTypeVideo, screen))
			if len(ids) == 0 {
				return got == nil
			}
			return got != nil && got.ID() == stored
		},
		gen.SliceOf(gen.IntRange(1, 3)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
