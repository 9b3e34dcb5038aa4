package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/VoiceLink/internal/adapters/device"
	"github.com/dkeye/VoiceLink/internal/domain"
)

func twoMics() []domain.Device {
	return []domain.Device{
		{DeviceID: "a", Kind: domain.DeviceAudioInput, Label: "Mic A"},
		{DeviceID: "b", Kind: domain.DeviceAudioInput, Label: "Mic B"},
		{DeviceID: "cam", Kind: domain.DeviceVideoInput, Label: "Cam"},
		{DeviceID: "spk", Kind: domain.DeviceAudioOutput, Label: "Speaker"},
	}
}

func TestUpdateMicMissingIDIsNoop(t *testing.T) {
	var updates []domain.Device
	reg := NewDeviceRegistry(device.NewVirtual(twoMics()), false, nil, func(d domain.Device) { updates = append(updates, d) })

	if _, err := reg.GetAllMics(context.Background()); err != nil {
		t.Fatalf("mics: %v", err)
	}
	reg.UpdateMic("a")
	reg.UpdateMic("missing-id")

	if got := reg.SelectedMic().DeviceID; got != "a" {
		t.Fatalf("selected = %q, want a", got)
	}
	if len(updates) != 1 || updates[0].DeviceID != "a" {
		t.Fatalf("updates = %v", updates)
	}
}

func TestUpdateMicBeforeEnumerationIsNoop(t *testing.T) {
	reg := NewDeviceRegistry(device.NewVirtual(twoMics()), false, nil, nil)
	reg.UpdateMic("a")
	if !reg.SelectedMic().IsZero() {
		t.Fatalf("selected = %v", reg.SelectedMic())
	}
}

func TestEnumerationByKind(t *testing.T) {
	reg := NewDeviceRegistry(device.NewVirtual(twoMics()), false, nil, nil)
	ctx := context.Background()
	mics, _ := reg.GetAllMics(ctx)
	cams, _ := reg.GetAllCams(ctx)
	spk, _ := reg.GetAllSpeakers(ctx)
	if len(mics) != 2 || len(cams) != 1 || len(spk) != 1 {
		t.Fatalf("mics=%d cams=%d speakers=%d", len(mics), len(cams), len(spk))
	}
}

func TestAcquireToggleRelease(t *testing.T) {
	v := device.NewVirtual(twoMics())
	reg := NewDeviceRegistry(v, true, nil, nil)

	reg.EnableMic(false)
	if reg.IsMicEnabled() {
		t.Fatal("no stream, mic must report disabled")
	}

	if err := reg.Acquire(context.Background(), nil); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	audio, video := reg.LocalTracks()
	if audio == nil || video == nil {
		t.Fatalf("audio=%v video=%v", audio, video)
	}
	if !reg.IsMicEnabled() || !reg.IsCamEnabled() {
		t.Fatal("tracks should start enabled")
	}
	reg.EnableMic(false)
	reg.EnableCam(false)
	if reg.IsMicEnabled() || reg.IsCamEnabled() {
		t.Fatal("toggle had no effect")
	}
	if v.Listeners() != 1 {
		t.Fatalf("listeners = %d", v.Listeners())
	}

	reg.Release()
	if reg.HasStream() {
		t.Fatal("stream kept after release")
	}
	if v.Listeners() != 0 {
		t.Fatalf("listeners after release = %d", v.Listeners())
	}
	if !audio.(*device.CaptureTrack).Stopped() || !video.(*device.CaptureTrack).Stopped() {
		t.Fatal("tracks not stopped")
	}
}

func TestAcquireFailureIsDeviceError(t *testing.T) {
	v := device.NewVirtual(twoMics())
	v.SetPermissionDenied(true)
	reg := NewDeviceRegistry(v, false, nil, nil)

	err := reg.Acquire(context.Background(), nil)
	var derr *domain.DeviceError
	if !errors.As(err, &derr) || !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("err = %v", err)
	}
	if reg.HasStream() {
		t.Fatal("stream stored on failure")
	}
}

func TestAcquireStaleStreamIsStopped(t *testing.T) {
	reg := NewDeviceRegistry(device.NewVirtual(twoMics()), false, nil, nil)
	err := reg.Acquire(context.Background(), func() bool { return false })
	if !errors.Is(err, domain.ErrStaleSession) {
		t.Fatalf("err = %v", err)
	}
	if reg.HasStream() {
		t.Fatal("stale stream stored")
	}
}

func TestDeviceChangeRefreshesMics(t *testing.T) {
	v := device.NewVirtual(twoMics()[:1])
	reg := NewDeviceRegistry(v, false, nil, nil)
	if err := reg.Acquire(context.Background(), nil); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	v.SetDevices(twoMics())
	reg.UpdateMic("b")
	if reg.SelectedMic().DeviceID != "b" {
		t.Fatalf("selected = %v", reg.SelectedMic())
	}
}
