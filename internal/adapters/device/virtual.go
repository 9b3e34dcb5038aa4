// Package device provides a software media device provider. It reports a
// configured device list, hands out pion-backed capture tracks and lets the
// host simulate plug/unplug and permission denial.
package device

import (
	"context"
	"sync"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Virtual struct {
	mu        sync.RWMutex
	devices   []domain.Device
	denied    bool
	listeners map[int]func()
	nextID    int
}

func NewVirtual(devices []domain.Device) *Virtual {
	return &Virtual{
		devices:   append([]domain.Device(nil), devices...),
		listeners: make(map[int]func()),
	}
}

// DefaultDevices is a minimal machine: one mic, one camera, one speaker.
func DefaultDevices() []domain.Device {
	return []domain.Device{
		{DeviceID: "default-mic", Kind: domain.DeviceAudioInput, Label: "Default Microphone"},
		{DeviceID: "default-cam", Kind: domain.DeviceVideoInput, Label: "Default Camera"},
		{DeviceID: "default-speaker", Kind: domain.DeviceAudioOutput, Label: "Default Speaker"},
	}
}

func (v *Virtual) EnumerateDevices(ctx context.Context) ([]domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Device(nil), v.devices...), nil
}

func (v *Virtual) GetUserMedia(ctx context.Context, opts core.UserMediaOptions) (core.MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	denied := v.denied
	devices := append([]domain.Device(nil), v.devices...)
	v.mu.RUnlock()

	if denied {
		return nil, domain.ErrPermissionDenied
	}

	streamID := uuid.NewString()
	var tracks []*CaptureTrack
	if opts.Audio {
		mic, ok := pick(devices, domain.DeviceAudioInput, opts.AudioDeviceID)
		if !ok {
			return nil, domain.ErrNoDevice
		}
		t, err := NewCaptureTrack(webrtc.RTPCodecTypeAudio, uuid.NewString(), streamID, mic.DeviceID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if opts.Video {
		cam, ok := pick(devices, domain.DeviceVideoInput, opts.VideoDeviceID)
		if !ok {
			return nil, domain.ErrNoDevice
		}
		t, err := NewCaptureTrack(webrtc.RTPCodecTypeVideo, uuid.NewString(), streamID, cam.DeviceID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	log.Info().Str("module", "adapters.device").Str("stream_id", streamID).Int("tracks", len(tracks)).Msg("user media granted")
	return NewStream(streamID, tracks...), nil
}

func (v *Virtual) OnDeviceChange(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// SetDevices replaces the device list and notifies change listeners.
func (v *Virtual) SetDevices(devices []domain.Device) {
	v.mu.Lock()
	v.devices = append([]domain.Device(nil), devices...)
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	log.Info().Str("module", "adapters.device").Int("devices", len(devices)).Msg("device change")
	for _, fn := range fns {
		fn()
	}
}

// SetPermissionDenied makes GetUserMedia fail as if the user refused.
func (v *Virtual) SetPermissionDenied(denied bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.denied = denied
}

// Listeners returns the number of active change listeners.
func (v *Virtual) Listeners() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.listeners)
}

func pick(devices []domain.Device, kind domain.DeviceKind, id string) (domain.Device, bool) {
	var first domain.Device
	found := false
	for _, d := range devices {
		if d.Kind != kind {
			continue
		}
		if id == "" || d.DeviceID == id {
			return d, true
		}
		if !found {
			first, found = d, true
		}
	}
	return first, found
}
