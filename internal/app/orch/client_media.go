package orch

import (
	"context"

	"github.com/dkeye/VoiceLink/internal/app"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/rs/zerolog/log"
)

func (c *Client) EnableMic(enable bool) { c.devices.EnableMic(enable) }
func (c *Client) EnableCam(enable bool) { c.devices.EnableCam(enable) }

func (c *Client) IsMicEnabled() bool { return c.devices.IsMicEnabled() }
func (c *Client) IsCamEnabled() bool { return c.devices.IsCamEnabled() }

// UpdateMic selects a mic from the last GetAllMics result.
func (c *Client) UpdateMic(deviceID string) { c.devices.UpdateMic(deviceID) }

func (c *Client) SelectedMic() domain.Device { return c.devices.SelectedMic() }

func (c *Client) GetAllMics(ctx context.Context) ([]domain.Device, error) {
	return c.devices.GetAllMics(ctx)
}

func (c *Client) GetAllCams(ctx context.Context) ([]domain.Device, error) {
	return c.devices.GetAllCams(ctx)
}

func (c *Client) GetAllSpeakers(ctx context.Context) ([]domain.Device, error) {
	return c.devices.GetAllSpeakers(ctx)
}

// Tracks returns the current local and remote tracks.
func (c *Client) Tracks() core.TrackSnapshot {
	return c.tracks.Snapshot(c.devices.LocalTracks())
}

// TrackStarted records a track reported by the media layer, for example a
// *webrtc.TrackRemote from the bot. A track already in its slot is ignored.
func (c *Client) TrackStarted(track core.Track, p domain.Participant, screen bool) {
	if app.NilTrack(track) {
		return
	}
	kind, changed := c.tracks.Started(track, p, screen)
	if !changed {
		return
	}
	log.Info().Str("module", "app.orch").
		Str("participant", string(p)).
		Str("kind", string(kind)).
		Str("track_id", track.ID()).
		Msg("track started")
	if fn := c.cb.TrackStarted; fn != nil {
		c.dispatch.Post(func() { fn(track, p, kind) })
	}
}
