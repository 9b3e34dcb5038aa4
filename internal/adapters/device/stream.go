package device

import (
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/pion/webrtc/v4"
)

// Stream is the local capture stream returned by GetUserMedia.
type Stream struct {
	id     string
	tracks []*CaptureTrack
}

func NewStream(id string, tracks ...*CaptureTrack) *Stream {
	return &Stream{id: id, tracks: tracks}
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []core.LocalTrack {
	out := make([]core.LocalTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

func (s *Stream) AudioTracks() []core.LocalTrack { return s.byKind(webrtc.RTPCodecTypeAudio) }
func (s *Stream) VideoTracks() []core.LocalTrack { return s.byKind(webrtc.RTPCodecTypeVideo) }

func (s *Stream) byKind(kind webrtc.RTPCodecType) []core.LocalTrack {
	out := make([]core.LocalTrack, 0, 1)
	for _, t := range s.tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}
