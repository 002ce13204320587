package audiofs

import (
	"context"
	"fmt"
	"io"

	"github.com/companyzero/audiodev/internal/logutil"
)

// AccessMode is the requested access of an opened device file. Device
// files always open in their direction's mode, so it is informational.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

// Stream is the generic byte stream returned when opening a device file.
// Operations not supported by the stream's direction fail with
// ErrUnsupportedOperation.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	CanRead() bool
	CanWrite() bool
	CanSeek() bool

	// Flush stops or drains pending native work.
	Flush() error

	// Len and Position are only meaningful for seekable streams.
	Len() (int64, error)
	Position() (int64, error)

	// WaveFormat describes the PCM moved by the stream.
	WaveFormat() (WaveFormat, error)
}

// FrameSource is a pull source of PCM frames.
type FrameSource interface {
	io.ReadCloser
	ReadFrames(p []byte, frames int) (int, error)
	WaveFormat() (WaveFormat, error)
}

// FrameSink is a push sink of PCM buffers.
type FrameSink interface {
	io.WriteCloser
	WaveFormat() (WaveFormat, error)
}

// DeviceFile is a single device of a Directory. Format and Frequency may be
// changed before opening; streams keep the values they were opened with.
type DeviceFile struct {
	desc   DeviceDescriptor
	parent *Directory

	Format    SampleFormat
	Frequency uint32
}

// ID returns the stable device key.
func (f *DeviceFile) ID() string { return f.desc.ID }

// Name returns the display name of the device.
func (f *DeviceFile) Name() string { return f.desc.DisplayName }

// Descriptor returns the device descriptor.
func (f *DeviceFile) Descriptor() DeviceDescriptor { return f.desc }

// Parent returns the directory that listed the device.
func (f *DeviceFile) Parent() *Directory { return f.parent }

func (f *DeviceFile) streamConfig() StreamConfig {
	return StreamConfig{
		Format:    f.Format,
		Frequency: f.Frequency,
		Device:    f.desc,
	}
}

// OpenCapture returns a capture stream for the device. The native device is
// only opened on the first Read.
func (f *DeviceFile) OpenCapture() (*CaptureStream, error) {
	if f.desc.Direction != Capture {
		return nil, unsupported("capturing from playback device")
	}
	cfg := f.streamConfig()
	bufferFrames := f.parent.cfg.bufferFrames
	if bufferFrames <= 0 {
		bufferFrames = int(cfg.Frequency)
	}
	return &CaptureStream{
		cfg:          cfg,
		bufferFrames: bufferFrames,
		driver:       f.parent.nativeDriver,
		log:          logutil.PrefixLogger(f.parent.cfg.log, "["+f.desc.DisplayName+"]"),
		metrics:      f.parent.cfg.metrics,
	}, nil
}

// OpenPlayback returns a playback stream for the device. The native device
// is only opened on the first Write.
func (f *DeviceFile) OpenPlayback() (*PlaybackStream, error) {
	if f.desc.Direction != Playback {
		return nil, unsupported("playing to capture device")
	}
	return &PlaybackStream{
		cfg:     f.streamConfig(),
		driver:  f.parent.nativeDriver,
		log:     logutil.PrefixLogger(f.parent.cfg.log, "["+f.desc.DisplayName+"]"),
		metrics: f.parent.cfg.metrics,
	}, nil
}

// OpenStream opens the device as a generic stream: a *CaptureStream for
// capture devices and a *PlaybackStream for playback devices. Neither ctx
// nor mode is checked: no native calls are performed, so opening always
// succeeds for a device listed by a directory.
func (f *DeviceFile) OpenStream(_ context.Context, mode AccessMode) (Stream, error) {
	switch f.desc.Direction {
	case Capture:
		return f.OpenCapture()
	case Playback:
		return f.OpenPlayback()
	default:
		return nil, fmt.Errorf("device %q has unknown direction %d",
			f.desc.ID, int(f.desc.Direction))
	}
}
