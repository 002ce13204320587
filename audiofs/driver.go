package audiofs

import (
	"sync"

	"github.com/decred/slog"
)

// Driver is the native audio layer. Implementations enumerate devices and
// open independent device sessions. Opening the empty device name selects
// the platform default device.
type Driver interface {
	Name() string
	Devices(dir Direction) ([]string, error)
	DefaultDevice(dir Direction) (string, error)
	OpenCapture(name string, format SampleFormat, frequency uint32, bufferFrames int) (CaptureDevice, error)
	OpenPlayback(name string, format SampleFormat, frequency uint32) (PlaybackDevice, error)
	Close() error
}

// CaptureDevice is an open capture session: a device plus its context and
// capture buffer.
type CaptureDevice interface {
	Start() error
	Stop() error

	// AvailableFrames returns how many frames are buffered and may be
	// captured without blocking.
	AvailableFrames() int

	// CaptureFrames copies frames from the capture buffer into dst. dst
	// must hold at least frames full frames.
	CaptureFrames(dst []byte, frames int) error

	// Close releases the device and its context.
	Close()
}

// PlaybackDevice is an open playback session: a device plus its rendering
// context. A single source and a single buffer are allocated by GenSource.
type PlaybackDevice interface {
	GenSource() error
	BufferData(data []byte, format SampleFormat, frequency uint32) NativeCode
	AttachBuffer() NativeCode
	Play() NativeCode
	StopSource()
	DeleteSource()

	// Close destroys the context and closes the device.
	Close()
}

// newDriver is defined by the build specific driver implementation.
var newDriver func(log slog.Logger) (Driver, error)

// NewDriver returns a new native driver. The caller owns it and must Close
// it once every directory and stream using it is done.
func NewDriver(log slog.Logger) (Driver, error) {
	if log == nil {
		log = slog.Disabled
	}
	return newDriver(log)
}

var (
	sharedDriverMtx sync.Mutex
	sharedDriver    Driver
)

// processDriver returns the process-wide driver, creating it on first use.
// It is never closed.
func processDriver(log slog.Logger) (Driver, error) {
	sharedDriverMtx.Lock()
	defer sharedDriverMtx.Unlock()

	if sharedDriver != nil {
		return sharedDriver, nil
	}
	drv, err := NewDriver(log)
	if err != nil {
		return nil, err
	}
	log.Debugf("Initialized shared %s audio driver", drv.Name())
	sharedDriver = drv
	return drv, nil
}
