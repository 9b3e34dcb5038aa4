package device

import (
	"errors"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrTrackStopped = errors.New("track stopped")

// CaptureTrack is a local capture track backed by a pion static RTP track.
type CaptureTrack struct {
	*webrtc.TrackLocalStaticRTP
	deviceID string
	enabled  atomic.Bool
	stopped  atomic.Bool
}

func NewCaptureTrack(kind webrtc.RTPCodecType, id, streamID, deviceID string) (*CaptureTrack, error) {
	capability := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	if kind == webrtc.RTPCodecTypeVideo {
		capability = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	}
	inner, err := webrtc.NewTrackLocalStaticRTP(capability, id, streamID)
	if err != nil {
		return nil, err
	}
	t := &CaptureTrack{TrackLocalStaticRTP: inner, deviceID: deviceID}
	t.enabled.Store(true)
	return t, nil
}

func (t *CaptureTrack) DeviceID() string { return t.deviceID }
func (t *CaptureTrack) Enabled() bool    { return t.enabled.Load() }
func (t *CaptureTrack) Stopped() bool    { return t.stopped.Load() }

func (t *CaptureTrack) SetEnabled(e bool) {
	if t.enabled.Swap(e) != e {
		log.Debug().Str("module", "adapters.device").Str("track_id", t.ID()).Bool("enabled", e).Msg("track toggled")
	}
}

// Stop releases the track. It is idempotent.
func (t *CaptureTrack) Stop() {
	if t.stopped.Swap(true) {
		return
	}
	t.enabled.Store(false)
	log.Info().Str("module", "adapters.device").Str("track_id", t.ID()).Str("kind", t.Kind().String()).Msg("track stopped")
}

// WriteRTP forwards a captured packet. Packets of a disabled track are
// dropped silently.
func (t *CaptureTrack) WriteRTP(pkt *rtp.Packet) error {
	if t.stopped.Load() {
		return ErrTrackStopped
	}
	if !t.enabled.Load() {
		return nil
	}
	return t.TrackLocalStaticRTP.WriteRTP(pkt)
}
