//go:build cgo && !noaudio

package audiofs

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/decred/slog"
	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"
)

func init() {
	newDriver = newMalgoDriver
}

func malgoDeviceType(dir Direction) malgo.DeviceType {
	if dir == Capture {
		return malgo.Capture
	}
	return malgo.Playback
}

func malgoFormat(f SampleFormat) (malgo.FormatType, error) {
	switch f.BitsPerSample() {
	case 8:
		return malgo.FormatU8, nil
	case 16:
		return malgo.FormatS16, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%s: %w", f, ErrInvalidFormat)
	}
}

// resultCode maps a miniaudio error to a native code.
func resultCode(err error) NativeCode {
	var res malgo.Result
	if errors.As(err, &res) {
		return NativeCode(res)
	}
	return CodeInvalidOperation
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

// malgoDriver enumerates devices through a long lived miniaudio context.
// Every opened session gets a context of its own.
type malgoDriver struct {
	log slog.Logger

	mtx sync.Mutex
	ctx *malgo.AllocatedContext
}

func newMalgoDriver(log slog.Logger) (Driver, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}
	return &malgoDriver{log: log, ctx: ctx}, nil
}

func (d *malgoDriver) Name() string { return "malgo" }

func (d *malgoDriver) list(dir Direction) ([]malgo.DeviceInfo, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.ctx == nil {
		return nil, ErrUnsupportedPlatform
	}
	return d.ctx.Devices(malgoDeviceType(dir))
}

func (d *malgoDriver) Devices(dir Direction) ([]string, error) {
	infos, err := d.list(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i := range infos {
		names[i] = infos[i].Name()
	}
	return names, nil
}

// defaultIndex returns the index of the device flagged as default, otherwise
// 0. It returns -1 when there are no devices.
func defaultIndex(infos []malgo.DeviceInfo) int {
	if len(infos) == 0 {
		return -1
	}
	i := slices.IndexFunc(infos, func(info malgo.DeviceInfo) bool {
		return info.IsDefault == 1
	})
	return max(i, 0)
}

// DefaultDevice returns the name of the default device. The name is empty
// when the platform reports no devices; the default entry is still usable
// and selects whatever the platform picks when opened.
func (d *malgoDriver) DefaultDevice(dir Direction) (string, error) {
	infos, err := d.list(dir)
	if err != nil {
		return "", err
	}
	i := defaultIndex(infos)
	if i < 0 {
		d.log.Debugf("No %s devices enumerated", dir)
		return "", nil
	}
	return infos[i].Name(), nil
}

// deviceID resolves a device name. A nil id selects the default device.
func (d *malgoDriver) deviceID(dir Direction, name string) (*malgo.DeviceID, error) {
	if name == "" {
		return nil, nil
	}
	infos, err := d.list(dir)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if infos[i].Name() == name {
			id := infos[i].ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%s device %q: %w", dir, name, ErrDeviceNotFound)
}

func (d *malgoDriver) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Uninit()
	d.ctx.Free()
	d.ctx = nil
	return err
}

func (d *malgoDriver) OpenCapture(name string, format SampleFormat, frequency uint32,
	bufferFrames int) (CaptureDevice, error) {

	bpf, err := format.BytesPerFrame()
	if err != nil {
		return nil, err
	}
	mf, err := malgoFormat(format)
	if err != nil {
		return nil, err
	}
	id, err := d.deviceID(Capture, name)
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	cd := &malgoCapture{
		log:  d.log,
		ctx:  ctx,
		bpf:  bpf,
		ring: ringbuffer.New(bufferFrames * bpf),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = frequency
	deviceConfig.Capture.Format = mf
	deviceConfig.Capture.Channels = uint32(format.Channels())
	if id != nil {
		deviceConfig.Capture.DeviceID = id.Pointer()
	}
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{Data: cd.onData}
	cd.dev, err = malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(ctx)
		return nil, err
	}
	return cd, nil
}

// malgoCapture buffers captured frames in a ring until they are read.
type malgoCapture struct {
	log  slog.Logger
	ctx  *malgo.AllocatedContext
	dev  *malgo.Device
	bpf  int
	ring *ringbuffer.RingBuffer

	dropped atomic.Int64
}

// onData runs on the audio thread. Only whole frames are stored so the ring
// stays frame aligned; frames that do not fit are dropped.
func (cd *malgoCapture) onData(_, in []byte, _ uint32) {
	free := cd.ring.Free() / cd.bpf * cd.bpf
	n := min(len(in), free)
	if n > 0 {
		_, _ = cd.ring.Write(in[:n])
	}
	if n < len(in) {
		cd.dropped.Add(int64(len(in) - n))
	}
}

func (cd *malgoCapture) Start() error { return cd.dev.Start() }

func (cd *malgoCapture) Stop() error { return cd.dev.Stop() }

func (cd *malgoCapture) AvailableFrames() int {
	if dropped := cd.dropped.Swap(0); dropped > 0 {
		cd.log.Warnf("Capture buffer full: dropped %d bytes", dropped)
	}
	return cd.ring.Length() / cd.bpf
}

func (cd *malgoCapture) CaptureFrames(dst []byte, frames int) error {
	want := frames * cd.bpf
	if len(dst) < want {
		return fmt.Errorf("buffer of %d bytes cannot hold %d frames",
			len(dst), frames)
	}
	n, err := cd.ring.Read(dst[:want])
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("captured %d bytes instead of %d", n, want)
	}
	return nil
}

func (cd *malgoCapture) Close() {
	cd.dev.Uninit()
	freeContext(cd.ctx)
	cd.ring.Reset()
}

func (d *malgoDriver) OpenPlayback(name string, format SampleFormat, frequency uint32) (PlaybackDevice, error) {
	if _, err := malgoFormat(format); err != nil {
		return nil, err
	}
	id, err := d.deviceID(Playback, name)
	if err != nil {
		return nil, err
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoPlayback{
		log:       d.log,
		ctx:       ctx,
		id:        id,
		format:    format,
		frequency: frequency,
	}, nil
}

// malgoPlayback plays a single in-flight buffer. The device is the
// source: it is created by GenSource and pulls from the buffer bound by
// Play.
type malgoPlayback struct {
	log       slog.Logger
	ctx       *malgo.AllocatedContext
	id        *malgo.DeviceID
	format    SampleFormat
	frequency uint32
	dev       *malgo.Device

	// Owned by the caller's goroutine.
	staged   []byte
	attached []byte

	mtx     sync.Mutex
	playing []byte
	pos     int
}

func (pd *malgoPlayback) GenSource() error {
	mf, err := malgoFormat(pd.format)
	if err != nil {
		return err
	}
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = pd.frequency
	deviceConfig.Playback.Format = mf
	deviceConfig.Playback.Channels = uint32(pd.format.Channels())
	if pd.id != nil {
		deviceConfig.Playback.DeviceID = pd.id.Pointer()
	}
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{Data: pd.onData}
	pd.dev, err = malgo.InitDevice(pd.ctx.Context, deviceConfig, callbacks)
	return err
}

// onData runs on the audio thread. Once the in-flight buffer is exhausted
// the output is filled with silence.
func (pd *malgoPlayback) onData(out, _ []byte, _ uint32) {
	pd.mtx.Lock()
	n := copy(out, pd.playing[pd.pos:])
	pd.pos += n
	pd.mtx.Unlock()

	fill := silence(pd.format)
	for i := n; i < len(out); i++ {
		out[i] = fill
	}
}

// BufferData stages a copy of data. The session plays a single format and
// frequency, so anything else is rejected.
func (pd *malgoPlayback) BufferData(data []byte, format SampleFormat, frequency uint32) NativeCode {
	if pd.dev == nil {
		return CodeInvalidOperation
	}
	if format != pd.format || frequency != pd.frequency {
		return CodeInvalidValue
	}
	pd.staged = slices.Clone(data)
	if pd.staged == nil {
		pd.staged = []byte{}
	}
	return CodeNoError
}

func (pd *malgoPlayback) AttachBuffer() NativeCode {
	if pd.dev == nil || pd.staged == nil {
		return CodeInvalidOperation
	}
	pd.attached = pd.staged
	pd.staged = nil
	return CodeNoError
}

// Play restarts playback from the start of the attached buffer, replacing
// whatever was playing.
func (pd *malgoPlayback) Play() NativeCode {
	if pd.dev == nil || pd.attached == nil {
		return CodeInvalidOperation
	}
	pd.mtx.Lock()
	pd.playing = pd.attached
	pd.pos = 0
	pd.mtx.Unlock()

	if !pd.dev.IsStarted() {
		if err := pd.dev.Start(); err != nil {
			pd.log.Debugf("Unable to start playback device: %v", err)
			return resultCode(err)
		}
	}
	return CodeNoError
}

func (pd *malgoPlayback) StopSource() {
	if pd.dev == nil {
		return
	}
	if pd.dev.IsStarted() {
		if err := pd.dev.Stop(); err != nil {
			pd.log.Warnf("Unable to stop playback device: %v", err)
		}
	}
	pd.mtx.Lock()
	pd.playing = nil
	pd.pos = 0
	pd.mtx.Unlock()
}

func (pd *malgoPlayback) DeleteSource() {
	if pd.dev == nil {
		return
	}
	pd.dev.Uninit()
	pd.dev = nil
	pd.staged, pd.attached = nil, nil
}

func (pd *malgoPlayback) Close() {
	freeContext(pd.ctx)
}
