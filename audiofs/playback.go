package audiofs

import (
	"github.com/decred/slog"
)

// PlaybackStream plays every written buffer on its device. Each Write is
// one discrete submission that replaces the buffer currently being played
// and restarts playback. The stream does not support reading, seeking or
// positions.
//
// A PlaybackStream must not be used concurrently from multiple goroutines.
type PlaybackStream struct {
	cfg     StreamConfig
	driver  func() (Driver, error)
	log     slog.Logger
	metrics *Metrics

	state sessionState
	held  resources
	dev   PlaybackDevice
}

// Config returns the stream configuration.
func (ps *PlaybackStream) Config() StreamConfig {
	return ps.cfg
}

// WaveFormat returns the WAV description of the data expected by Write.
func (ps *PlaybackStream) WaveFormat() (WaveFormat, error) {
	return ps.cfg.WaveFormat()
}

func (ps *PlaybackStream) CanRead() bool  { return false }
func (ps *PlaybackStream) CanWrite() bool { return true }
func (ps *PlaybackStream) CanSeek() bool  { return false }

// Len is not supported by continuous streams.
func (ps *PlaybackStream) Len() (int64, error) {
	return 0, unsupported("length of continuous stream")
}

// Position is not supported by continuous streams.
func (ps *PlaybackStream) Position() (int64, error) {
	return 0, unsupported("position of continuous stream")
}

// Seek is not supported by continuous streams.
func (ps *PlaybackStream) Seek(offset int64, whence int) (int64, error) {
	return 0, unsupported("seeking continuous stream")
}

// Read is not supported by playback streams.
func (ps *PlaybackStream) Read(p []byte) (int, error) {
	return 0, unsupported("reading from playback device")
}

// Flush does nothing: written buffers are submitted immediately.
func (ps *PlaybackStream) Flush() error {
	return nil
}

// open opens the device and its context, then allocates the source and
// buffer held for the rest of the stream's life. On failure, whatever was
// acquired is released again.
func (ps *PlaybackStream) open() error {
	name := ps.cfg.Device.nativeName()
	drv, err := ps.driver()
	if err != nil {
		ps.metrics.openFailed(Playback)
		return &DeviceOpenError{Device: name, Err: err}
	}

	dev, err := drv.OpenPlayback(name, ps.cfg.Format, ps.cfg.Frequency)
	if err != nil {
		ps.metrics.openFailed(Playback)
		return &DeviceOpenError{Device: name, Err: err}
	}
	ps.dev = dev
	ps.held |= resDevice

	if err := dev.GenSource(); err != nil {
		ps.release()
		ps.metrics.openFailed(Playback)
		return &DeviceOpenError{Device: name, Err: err}
	}
	ps.held |= resSource

	ps.state = stateOpen
	ps.metrics.sessionOpened(Playback)
	ps.log.Debugf("Opened playback session (%s, %d Hz)", ps.cfg.Format,
		ps.cfg.Frequency)
	return nil
}

// release tears down the acquired native resources in reverse order of
// acquisition, skipping the ones never acquired.
func (ps *PlaybackStream) release() {
	if ps.held.has(resSource) {
		ps.dev.StopSource()
		ps.dev.DeleteSource()
		ps.held &^= resSource
	}
	if ps.held.has(resDevice) {
		ps.dev.Close()
		ps.held &^= resDevice
	}
	ps.dev = nil
}

func (ps *PlaybackStream) nativeErr(op string, code NativeCode) error {
	ps.metrics.nativeError(op)
	ps.log.Debugf("Native %s failed: %s", op, code)
	return &NativeBufferError{Op: op, Code: code}
}

// Write submits exactly len(p) bytes as one buffer and (re)starts playback
// with it. No frame alignment is applied. A failed Write leaves the stream
// usable for the next one.
func (ps *PlaybackStream) Write(p []byte) (int, error) {
	switch ps.state {
	case stateDisposed:
		return 0, ErrStreamClosed
	case stateClosed:
		if err := ps.open(); err != nil {
			return 0, err
		}
	}

	if code := ps.dev.BufferData(p, ps.cfg.Format, ps.cfg.Frequency); code != CodeNoError {
		return 0, ps.nativeErr("buffer upload", code)
	}
	if code := ps.dev.AttachBuffer(); code != CodeNoError {
		return 0, ps.nativeErr("buffer attach", code)
	}
	if code := ps.dev.Play(); code != CodeNoError {
		return 0, ps.nativeErr("play", code)
	}

	ps.state = stateRunning
	ps.metrics.submitted(len(p))
	ps.log.Tracef("Submitted buffer of %d bytes", len(p))
	return len(p), nil
}

// Close stops and deletes the source, then destroys the context and closes
// the device. Closing an already closed stream is a no-op.
func (ps *PlaybackStream) Close() error {
	if ps.state == stateDisposed {
		return nil
	}
	hadSession := ps.state.hasSession()
	ps.release()
	ps.state = stateDisposed
	if hadSession {
		ps.metrics.sessionClosed(Playback)
		ps.log.Debugf("Closed playback session")
	}
	return nil
}

var (
	_ Stream    = (*PlaybackStream)(nil)
	_ FrameSink = (*PlaybackStream)(nil)
)
