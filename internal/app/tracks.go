package app

import (
	"reflect"
	"sync"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type TrackRegistry struct {
	mu    sync.RWMutex
	slots map[domain.Participant]map[domain.TrackKind]core.Track
}

func NewTrackRegistry() *TrackRegistry {
	return &TrackRegistry{slots: make(map[domain.Participant]map[domain.TrackKind]core.Track)}
}

// Update stores track in a slot. It reports false when the slot already
// holds a track with the same id.
func (r *TrackRegistry) Update(p domain.Participant, kind domain.TrackKind, track core.Track) bool {
	if NilTrack(track) {
		track = nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[p]
	if !ok {
		slot = make(map[domain.TrackKind]core.Track)
		r.slots[p] = slot
	}
	if cur, ok := slot[kind]; ok && cur != nil && track != nil && cur.ID() == track.ID() {
		return false
	}
	if track == nil {
		if _, ok := slot[kind]; !ok {
			return false
		}
		delete(slot, kind)
	} else {
		slot[kind] = track
	}
	log.Debug().Str("module", "app.tracks").Str("participant", string(p)).Str("kind", string(kind)).Msg("track slot updated")
	return true
}

// Started registers a track reported by the media layer. Screen-share
// tracks go to the screen slots.
func (r *TrackRegistry) Started(track core.Track, p domain.Participant, screen bool) (domain.TrackKind, bool) {
	if NilTrack(track) {
		return "", false
	}
	kind := SlotFor(track.Kind(), screen)
	return kind, r.Update(p, kind, track)
}

// NilTrack reports whether track is nil or wraps a nil pointer, such as a
// (*webrtc.TrackRemote)(nil) passed through the interface.
func NilTrack(track core.Track) bool {
	if track == nil {
		return true
	}
	v := reflect.ValueOf(track)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// SlotFor maps a codec type and screen flag to a slot.
func SlotFor(codec webrtc.RTPCodecType, screen bool) domain.TrackKind {
	switch {
	case codec == webrtc.RTPCodecTypeVideo && screen:
		return domain.TrackScreenVideo
	case codec == webrtc.RTPCodecTypeVideo:
		return domain.TrackVideo
	case screen:
		return domain.TrackScreenAudio
	default:
		return domain.TrackAudio
	}
}

// Snapshot copies the stored slots and overlays the local stream tracks.
// The result always has the local and bot participants.
func (r *TrackRegistry) Snapshot(localAudio, localVideo core.Track) core.TrackSnapshot {
	snap := core.TrackSnapshot{
		domain.ParticipantLocal: make(map[domain.TrackKind]core.Track),
		domain.ParticipantBot:   make(map[domain.TrackKind]core.Track),
	}
	r.mu.RLock()
	for p, slot := range r.slots {
		dst, ok := snap[p]
		if !ok {
			dst = make(map[domain.TrackKind]core.Track, len(slot))
			snap[p] = dst
		}
		for k, t := range slot {
			dst[k] = t
		}
	}
	r.mu.RUnlock()

	local := snap[domain.ParticipantLocal]
	delete(local, domain.TrackAudio)
	delete(local, domain.TrackVideo)
	if localAudio != nil {
		local[domain.TrackAudio] = localAudio
	}
	if localVideo != nil {
		local[domain.TrackVideo] = localVideo
	}
	return snap
}

func (r *TrackRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = make(map[domain.Participant]map[domain.TrackKind]core.Track)
}
