package app

import (
	"context"
	"sync"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/rs/zerolog/log"
)

// DeviceRegistry owns the local capture stream. Other components reach
// the stream only through its methods.
type DeviceRegistry struct {
	media        core.MediaDevices
	enableCam    bool
	dispatch     *Dispatcher
	onMicUpdated func(domain.Device)

	mu       sync.RWMutex
	stream   core.MediaStream
	mics     []domain.Device
	selected domain.Device
	unwatch  func()
}

func NewDeviceRegistry(media core.MediaDevices, enableCam bool, d *Dispatcher, onMicUpdated func(domain.Device)) *DeviceRegistry {
	if d == nil {
		d = NewDispatcher()
	}
	return &DeviceRegistry{media: media, enableCam: enableCam, dispatch: d, onMicUpdated: onMicUpdated}
}

// Acquire requests audio, and video when camera capture is enabled. The
// stream is kept only if valid still reports true once it arrives;
// otherwise it is stopped and domain.ErrStaleSession is returned.
func (r *DeviceRegistry) Acquire(ctx context.Context, valid func() bool) error {
	r.mu.RLock()
	opts := core.UserMediaOptions{Audio: true, Video: r.enableCam, AudioDeviceID: r.selected.DeviceID}
	r.mu.RUnlock()

	stream, err := r.media.GetUserMedia(ctx, opts)
	if err != nil {
		log.Error().Err(err).Str("module", "app.devices").Bool("video", opts.Video).Msg("capture acquisition failed")
		return &domain.DeviceError{Op: "getUserMedia", Err: err}
	}

	r.mu.Lock()
	if valid != nil && !valid() {
		r.mu.Unlock()
		stopAll(stream)
		log.Warn().Str("module", "app.devices").Str("stream_id", stream.ID()).Msg("discarding stream of a closed session")
		return domain.ErrStaleSession
	}
	if r.stream != nil {
		stopAll(r.stream)
	}
	r.stream = stream
	if r.unwatch == nil {
		r.unwatch = r.media.OnDeviceChange(r.onDeviceChange)
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.devices").Str("stream_id", stream.ID()).Int("tracks", len(stream.Tracks())).Msg("capture acquired")
	return nil
}

// Release stops every track of the stream and forgets it. It is the only
// path that frees capture hardware.
func (r *DeviceRegistry) Release() {
	r.mu.Lock()
	stream := r.stream
	r.stream = nil
	unwatch := r.unwatch
	r.unwatch = nil
	r.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	if stream == nil {
		return
	}
	stopAll(stream)
	log.Info().Str("module", "app.devices").Str("stream_id", stream.ID()).Msg("capture released")
}

func (r *DeviceRegistry) GetAllMics(ctx context.Context) ([]domain.Device, error) {
	mics, err := r.enumerate(ctx, domain.DeviceAudioInput)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.mics = append([]domain.Device(nil), mics...)
	r.mu.Unlock()
	return mics, nil
}

func (r *DeviceRegistry) GetAllCams(ctx context.Context) ([]domain.Device, error) {
	return r.enumerate(ctx, domain.DeviceVideoInput)
}

func (r *DeviceRegistry) GetAllSpeakers(ctx context.Context) ([]domain.Device, error) {
	return r.enumerate(ctx, domain.DeviceAudioOutput)
}

func (r *DeviceRegistry) enumerate(ctx context.Context, kind domain.DeviceKind) ([]domain.Device, error) {
	all, err := r.media.EnumerateDevices(ctx)
	if err != nil {
		return nil, &domain.DeviceError{Op: "enumerateDevices", Err: err}
	}
	return domain.FilterDevices(all, kind), nil
}

// UpdateMic selects a mic from the last enumeration. Unknown ids are
// ignored. The stream is not re-acquired.
func (r *DeviceRegistry) UpdateMic(deviceID string) {
	r.mu.Lock()
	var found domain.Device
	for _, m := range r.mics {
		if m.DeviceID == deviceID {
			found = m
			break
		}
	}
	if found.IsZero() {
		r.mu.Unlock()
		log.Debug().Str("module", "app.devices").Str("device_id", deviceID).Msg("unknown mic, selection unchanged")
		return
	}
	r.selected = found
	if r.onMicUpdated != nil {
		fn := r.onMicUpdated
		r.dispatch.Enqueue(func() { fn(found) })
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.devices").Str("device_id", found.DeviceID).Str("label", found.Label).Msg("mic selected")
	r.dispatch.Flush()
}

func (r *DeviceRegistry) SelectedMic() domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

func (r *DeviceRegistry) EnableMic(enable bool) {
	r.toggle(func(s core.MediaStream) []core.LocalTrack { return s.AudioTracks() }, enable)
}

func (r *DeviceRegistry) EnableCam(enable bool) {
	r.toggle(func(s core.MediaStream) []core.LocalTrack { return s.VideoTracks() }, enable)
}

func (r *DeviceRegistry) IsMicEnabled() bool {
	return r.enabled(func(s core.MediaStream) []core.LocalTrack { return s.AudioTracks() })
}

func (r *DeviceRegistry) IsCamEnabled() bool {
	return r.enabled(func(s core.MediaStream) []core.LocalTrack { return s.VideoTracks() })
}

// LocalTracks returns the first audio and video track of the stream.
func (r *DeviceRegistry) LocalTracks() (audio, video core.Track) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stream == nil {
		return nil, nil
	}
	if a := r.stream.AudioTracks(); len(a) > 0 {
		audio = a[0]
	}
	if v := r.stream.VideoTracks(); len(v) > 0 {
		video = v[0]
	}
	return audio, video
}

// HasStream reports whether a capture stream is held.
func (r *DeviceRegistry) HasStream() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stream != nil
}

func (r *DeviceRegistry) toggle(pick func(core.MediaStream) []core.LocalTrack, enable bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stream == nil {
		return
	}
	if tracks := pick(r.stream); len(tracks) > 0 {
		tracks[0].SetEnabled(enable)
	}
}

func (r *DeviceRegistry) enabled(pick func(core.MediaStream) []core.LocalTrack) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stream == nil {
		return false
	}
	tracks := pick(r.stream)
	return len(tracks) > 0 && tracks[0].Enabled()
}

func (r *DeviceRegistry) onDeviceChange() {
	mics, err := r.GetAllMics(context.Background())
	if err != nil {
		log.Warn().Err(err).Str("module", "app.devices").Msg("refresh after device change")
		return
	}
	log.Info().Str("module", "app.devices").Int("mics", len(mics)).Msg("device list refreshed")
}

func stopAll(s core.MediaStream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
