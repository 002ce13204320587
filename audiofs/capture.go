package audiofs

import (
	"fmt"

	"github.com/decred/slog"
)

// CaptureStream is a continuous, forward only stream that fills reads with
// as many captured frames as are currently available. It does not support
// seeking, positions or writing.
//
// A CaptureStream must not be used concurrently from multiple goroutines.
type CaptureStream struct {
	cfg          StreamConfig
	bufferFrames int
	driver       func() (Driver, error)
	log          slog.Logger
	metrics      *Metrics

	state sessionState
	dev   CaptureDevice
}

// Config returns the stream configuration.
func (cs *CaptureStream) Config() StreamConfig {
	return cs.cfg
}

// WaveFormat returns the WAV description of the captured data.
func (cs *CaptureStream) WaveFormat() (WaveFormat, error) {
	return cs.cfg.WaveFormat()
}

func (cs *CaptureStream) CanRead() bool  { return true }
func (cs *CaptureStream) CanWrite() bool { return false }
func (cs *CaptureStream) CanSeek() bool  { return false }

// Len is not supported by continuous streams.
func (cs *CaptureStream) Len() (int64, error) {
	return 0, unsupported("length of continuous stream")
}

// Position is not supported by continuous streams.
func (cs *CaptureStream) Position() (int64, error) {
	return 0, unsupported("position of continuous stream")
}

// Seek is not supported by continuous streams.
func (cs *CaptureStream) Seek(offset int64, whence int) (int64, error) {
	return 0, unsupported("seeking continuous stream")
}

// Write is not supported by capture streams.
func (cs *CaptureStream) Write(p []byte) (int, error) {
	return 0, unsupported("writing to capture stream")
}

// open creates the native capture session.
func (cs *CaptureStream) open() error {
	name := cs.cfg.Device.nativeName()
	drv, err := cs.driver()
	if err != nil {
		cs.metrics.openFailed(Capture)
		return &DeviceOpenError{Device: name, Err: err}
	}
	dev, err := drv.OpenCapture(name, cs.cfg.Format, cs.cfg.Frequency, cs.bufferFrames)
	if err != nil {
		cs.metrics.openFailed(Capture)
		return &DeviceOpenError{Device: name, Err: err}
	}

	cs.dev = dev
	cs.state = stateOpen
	cs.metrics.sessionOpened(Capture)
	cs.log.Debugf("Opened capture session (%s, %d Hz, %d buffer frames)",
		cs.cfg.Format, cs.cfg.Frequency, cs.bufferFrames)
	return nil
}

// ensureRunning opens the session if needed and starts capturing if it is
// not already doing so.
func (cs *CaptureStream) ensureRunning() error {
	switch cs.state {
	case stateDisposed:
		return ErrStreamClosed
	case stateRunning:
		return nil
	case stateClosed:
		if err := cs.open(); err != nil {
			return err
		}
	}

	if err := cs.dev.Start(); err != nil {
		return fmt.Errorf("unable to start capture: %w", err)
	}
	cs.log.Tracef("Capture started (was %s)", cs.state)
	cs.state = stateRunning
	return nil
}

// Read fills p with the captured frames that are currently available,
// limited to the number of whole frames that fit in p. Trailing bytes of p
// that do not form a whole frame are never filled.
//
// Read does not wait for data: when no frames are available it returns
// 0, nil. Callers are expected to poll.
func (cs *CaptureStream) Read(p []byte) (int, error) {
	if cs.state == stateDisposed {
		return 0, ErrStreamClosed
	}
	bpf, err := cs.cfg.Format.BytesPerFrame()
	if err != nil {
		return 0, err
	}
	return cs.readFrames(p, len(p)/bpf, bpf)
}

// ReadFrames is like Read, but captures at most frames frames. It returns
// the number of bytes filled.
func (cs *CaptureStream) ReadFrames(p []byte, frames int) (int, error) {
	if cs.state == stateDisposed {
		return 0, ErrStreamClosed
	}
	bpf, err := cs.cfg.Format.BytesPerFrame()
	if err != nil {
		return 0, err
	}
	return cs.readFrames(p, min(frames, len(p)/bpf), bpf)
}

func (cs *CaptureStream) readFrames(p []byte, frames, bpf int) (int, error) {
	if err := cs.ensureRunning(); err != nil {
		return 0, err
	}

	available := cs.dev.AvailableFrames()
	if available <= 0 {
		cs.metrics.emptyRead()
		return 0, nil
	}

	n := min(frames, available)
	if n > 0 {
		if err := cs.dev.CaptureFrames(p[:n*bpf], n); err != nil {
			return 0, fmt.Errorf("unable to capture %d frames: %w", n, err)
		}
	}
	cs.metrics.captured(n * bpf)
	return n * bpf, nil
}

// Flush stops capturing without releasing the session. The next Read
// restarts it.
func (cs *CaptureStream) Flush() error {
	if cs.state != stateRunning {
		return nil
	}
	if err := cs.dev.Stop(); err != nil {
		return fmt.Errorf("unable to stop capture: %w", err)
	}
	cs.state = stateStopped
	cs.log.Tracef("Capture stopped")
	return nil
}

// Close releases the native session. Closing an already closed stream is a
// no-op.
func (cs *CaptureStream) Close() error {
	switch {
	case cs.state == stateDisposed:
		return nil
	case !cs.state.hasSession():
		cs.state = stateDisposed
		return nil
	}

	if cs.state == stateRunning {
		if err := cs.dev.Stop(); err != nil {
			cs.log.Warnf("Unable to stop capture before closing: %v", err)
		}
	}
	cs.dev.Close()
	cs.dev = nil
	cs.state = stateDisposed
	cs.metrics.sessionClosed(Capture)
	cs.log.Debugf("Closed capture session")
	return nil
}

var (
	_ Stream      = (*CaptureStream)(nil)
	_ FrameSource = (*CaptureStream)(nil)
)
