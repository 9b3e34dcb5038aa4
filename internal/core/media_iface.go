package core

import (
	"context"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Track is the identity of a media track. Both *webrtc.TrackLocalStaticRTP
// and *webrtc.TrackRemote satisfy it.
type Track interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
}

// LocalTrack is a capture track owned by the local media stream.
type LocalTrack interface {
	Track
	Enabled() bool
	SetEnabled(bool)
	// Stop releases the capture hardware behind the track.
	Stop()
	Stopped() bool
}

// MediaStream groups the local capture tracks.
type MediaStream interface {
	ID() string
	Tracks() []LocalTrack
	AudioTracks() []LocalTrack
	VideoTracks() []LocalTrack
}

// UserMediaOptions selects what GetUserMedia captures.
type UserMediaOptions struct {
	Audio         bool
	Video         bool
	AudioDeviceID string
	VideoDeviceID string
}

// MediaDevices is the platform device API.
type MediaDevices interface {
	EnumerateDevices(ctx context.Context) ([]domain.Device, error)
	// GetUserMedia prompts for permission and returns a stream with the
	// requested tracks.
	GetUserMedia(ctx context.Context, opts UserMediaOptions) (MediaStream, error)
	// OnDeviceChange registers fn for device plug/unplug notifications and
	// returns a function removing the listener.
	OnDeviceChange(fn func()) (remove func())
}

// TrackSnapshot maps participant to slot to track. It always holds the local
// and bot participants; a missing slot means the track is not producing.
type TrackSnapshot map[domain.Participant]map[domain.TrackKind]Track

// Get returns the track in a slot, or nil.
func (s TrackSnapshot) Get(p domain.Participant, kind domain.TrackKind) Track {
	return s[p][kind]
}
