package audiofs

import (
	"context"
	"errors"
	"testing"

	"github.com/companyzero/audiodev/internal/assert"
)

// listIDs collects the IDs of every listed device, failing on errors.
func listIDs(t *testing.T, dir *Directory) []string {
	t.Helper()
	var ids []string
	for f, err := range dir.Devices(context.Background()) {
		assert.NilErr(t, err)
		ids = append(ids, f.ID())
	}
	return ids
}

func TestDirectoryIdentity(t *testing.T) {
	t.Parallel()

	capDir := NewDirectory(Capture)
	assert.DeepEqual(t, capDir.ID(), "/audio/capture/")
	assert.DeepEqual(t, capDir.Name(), "Capture devices")
	assert.DeepEqual(t, capDir.Direction(), Capture)

	playDir := NewDirectory(Playback)
	assert.DeepEqual(t, playDir.ID(), "/audio/playback/")
	assert.DeepEqual(t, playDir.Name(), "Playback devices")
	assert.DeepEqual(t, playDir.Direction(), Playback)
}

// TestDirectoryDefaultFirst asserts the default device is listed first and
// duplicates of it in the native list are kept.
func TestDirectoryDefaultFirst(t *testing.T) {
	t.Parallel()

	for _, d := range []Direction{Capture, Playback} {
		dir, drv := testDirectory(t, d)
		ids := listIDs(t, dir)
		want := append([]string{DefaultDeviceID}, drv.devices[d]...)
		assert.DeepEqual(t, ids, want)
		assert.Contains(t, ids, drv.defaults[d])

		var first *DeviceFile
		for f, err := range dir.Devices(context.Background()) {
			assert.NilErr(t, err)
			first = f
			break
		}
		assert.DeepEqual(t, first.Name(), drv.defaults[d])
		assert.BoolIs(t, first.Descriptor().IsDefault(), true)
		assert.DeepEqual(t, first.Descriptor().Direction, d)
		if first.Parent() != dir {
			t.Fatal("unexpected parent directory")
		}
	}
}

func TestDirectoryEmptyDefaultName(t *testing.T) {
	t.Parallel()

	dir, drv := testDirectory(t, Playback)
	drv.defaults[Playback] = ""
	f, err := dir.Device(context.Background(), DefaultDeviceID)
	assert.NilErr(t, err)
	assert.DeepEqual(t, f.Name(), fallbackDefaultName)
}

// TestDirectoryFreshDescriptors asserts every enumeration reflects the
// current native device list.
func TestDirectoryFreshDescriptors(t *testing.T) {
	t.Parallel()

	dir, drv := testDirectory(t, Capture)
	assert.DeepEqual(t, len(listIDs(t, dir)), 3)

	drv.devices[Capture] = append(drv.devices[Capture], "Line In")
	ids := listIDs(t, dir)
	assert.DeepEqual(t, len(ids), 4)
	assert.DeepEqual(t, ids[3], "Line In")
}

func TestDirectoryUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	dir, drv := testDirectory(t, Capture)
	drv.defaultErr = ErrUnsupportedPlatform

	var gotErr error
	var files int
	for f, err := range dir.Devices(context.Background()) {
		if err != nil {
			gotErr = err
			continue
		}
		if f != nil {
			files++
		}
	}
	assert.ErrorIs(t, gotErr, ErrUnsupportedPlatform)
	assert.DeepEqual(t, files, 0)
}

func TestDirectoryEnumerationError(t *testing.T) {
	t.Parallel()

	errNative := errors.New("enumeration failed")
	dir, drv := testDirectory(t, Playback)
	drv.devicesErr = errNative

	var ids []string
	var gotErr error
	for f, err := range dir.Devices(context.Background()) {
		if err != nil {
			gotErr = err
			break
		}
		ids = append(ids, f.ID())
	}
	assert.DeepEqual(t, ids, []string{DefaultDeviceID})
	assert.ErrorIs(t, gotErr, errNative)
}

func TestDirectoryCanceled(t *testing.T) {
	t.Parallel()

	dir, drv := testDirectory(t, Capture)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ids []string
	var gotErr error
	for f, err := range dir.Devices(ctx) {
		if err != nil {
			gotErr = err
			break
		}
		ids = append(ids, f.ID())
		if len(ids) == 2 {
			cancel()
		}
	}
	assert.DeepEqual(t, ids, []string{DefaultDeviceID, drv.devices[Capture][0]})
	assert.ErrorIs(t, gotErr, context.Canceled)

	_, err := dir.Device(ctx, DefaultDeviceID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryDeviceNotFound(t *testing.T) {
	t.Parallel()

	dir, _ := testDirectory(t, Playback)
	_, err := dir.Device(context.Background(), "Headphones")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

// TestDeviceFileOpenStream asserts opening a device file returns the stream
// kind of its directory without performing native calls.
func TestDeviceFileOpenStream(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	capDir, capDrv := testDirectory(t, Capture, WithFormat(Mono16), WithFrequency(44100))
	f, err := capDir.Device(ctx, "USB Mic")
	assert.NilErr(t, err)
	capDrv.takeCalls()

	s, err := f.OpenStream(ctx, AccessReadWrite)
	assert.NilErr(t, err)
	cs, ok := s.(*CaptureStream)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, cs.Config(), StreamConfig{
		Format:    Mono16,
		Frequency: 44100,
		Device:    DeviceDescriptor{ID: "USB Mic", DisplayName: "USB Mic", Direction: Capture},
	})
	assert.DeepEqual(t, len(capDrv.takeCalls()), 0)
	_, err = f.OpenPlayback()
	assert.ErrorIs(t, err, ErrUnsupportedOperation)

	playDir, playDrv := testDirectory(t, Playback)
	f, err = playDir.Device(ctx, DefaultDeviceID)
	assert.NilErr(t, err)
	playDrv.takeCalls()

	// Changing the file format only affects streams opened afterwards.
	f.Format = Mono8
	s, err = f.OpenStream(ctx, AccessRead)
	assert.NilErr(t, err)
	ps, ok := s.(*PlaybackStream)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, ps.Config().Format, Mono8)
	assert.DeepEqual(t, ps.Config().Frequency, DefaultFrequency)
	f.Format = Stereo8
	assert.DeepEqual(t, ps.Config().Format, Mono8)
	assert.DeepEqual(t, len(playDrv.takeCalls()), 0)
	_, err = f.OpenCapture()
	assert.ErrorIs(t, err, ErrUnsupportedOperation)

	// Opening defers all native work, so even a canceled context succeeds.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	s, err = f.OpenStream(canceled, AccessWrite)
	assert.NilErr(t, err)
	_, ok = s.(*PlaybackStream)
	assert.BoolIs(t, ok, true)
	assert.DeepEqual(t, len(playDrv.takeCalls()), 0)
}

// TestDirectoryNativeDeviceNamedDefault asserts a native device whose name
// matches the default entry ID is still opened by name.
func TestDirectoryNativeDeviceNamedDefault(t *testing.T) {
	t.Parallel()

	dir, drv := testDirectory(t, Capture)
	drv.devices[Capture] = []string{DefaultDeviceID, "USB Mic"}

	var files []*DeviceFile
	for f, err := range dir.Devices(context.Background()) {
		assert.NilErr(t, err)
		files = append(files, f)
	}
	assert.DeepEqual(t, len(files), 3)
	assert.BoolIs(t, files[0].Descriptor().IsDefault(), true)
	assert.DeepEqual(t, files[1].ID(), DefaultDeviceID)
	assert.BoolIs(t, files[1].Descriptor().IsDefault(), false)

	cs, err := files[1].OpenCapture()
	assert.NilErr(t, err)
	drv.takeCalls()
	_, err = cs.Read(make([]byte, 4))
	assert.NilErr(t, err)
	assert.DeepEqual(t, drv.takeCalls(), []string{"open capture default", "start"})
	assert.NilErr(t, cs.Close())
}
