package audiofs

import (
	"fmt"
	"strings"
)

// SampleFormat is the PCM layout of the samples moved through a device
// stream.
type SampleFormat int

const (
	Mono8 SampleFormat = iota + 1
	Mono16
	Stereo8
	Stereo16
)

// DefaultFormat is the format used by device files unless overridden.
const DefaultFormat = Stereo16

// DefaultFrequency is the sample rate (in Hz) used by device files unless
// overridden.
const DefaultFrequency uint32 = 16000

func (f SampleFormat) String() string {
	switch f {
	case Mono8:
		return "mono8"
	case Mono16:
		return "mono16"
	case Stereo8:
		return "stereo8"
	case Stereo16:
		return "stereo16"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Channels returns the number of interleaved channels of the format or 0
// if the format is unknown.
func (f SampleFormat) Channels() int {
	switch f {
	case Mono8, Mono16:
		return 1
	case Stereo8, Stereo16:
		return 2
	default:
		return 0
	}
}

// BitsPerSample returns the size of a single channel sample in bits or 0 if
// the format is unknown.
func (f SampleFormat) BitsPerSample() int {
	switch f {
	case Mono8, Stereo8:
		return 8
	case Mono16, Stereo16:
		return 16
	default:
		return 0
	}
}

// BytesPerFrame returns the size of one frame (one sample for every
// channel) of the format.
func (f SampleFormat) BytesPerFrame() (int, error) {
	switch f {
	case Mono8:
		return 1, nil
	case Mono16, Stereo8:
		return 2, nil
	case Stereo16:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidFormat, int(f))
	}
}

// ParseSampleFormat parses the name of a format as returned by String.
// Matching is case insensitive.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mono8":
		return Mono8, nil
	case "mono16":
		return Mono16, nil
	case "stereo8":
		return Stereo8, nil
	case "stereo16":
		return Stereo16, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// FormatFor returns the format with the given channel count and sample bit
// depth.
func FormatFor(channels, bitsPerSample int) (SampleFormat, error) {
	switch {
	case channels == 1 && bitsPerSample == 8:
		return Mono8, nil
	case channels == 1 && bitsPerSample == 16:
		return Mono16, nil
	case channels == 2 && bitsPerSample == 8:
		return Stereo8, nil
	case channels == 2 && bitsPerSample == 16:
		return Stereo16, nil
	default:
		return 0, fmt.Errorf("%w: %d channels with %d bits per sample",
			ErrInvalidFormat, channels, bitsPerSample)
	}
}

// WaveFormat describes the PCM data of a stream in the terms a WAV writer
// needs for its header.
type WaveFormat struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
}

// Direction is the direction of data flow of a device.
type Direction int

const (
	Capture Direction = iota
	Playback
)

func (d Direction) String() string {
	switch d {
	case Capture:
		return "capture"
	case Playback:
		return "playback"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DefaultDeviceID is the ID of the synthetic entry that refers to the
// platform default device of a direction.
const DefaultDeviceID = "default"

// DeviceDescriptor identifies one device returned by an enumeration.
type DeviceDescriptor struct {
	ID          string
	DisplayName string
	Direction   Direction

	// isDefault marks the synthetic entry. Native devices may use the
	// same ID.
	isDefault bool
}

// IsDefault returns true if this is the synthetic default device entry.
func (d DeviceDescriptor) IsDefault() bool {
	return d.isDefault
}

// nativeName is the name passed to the driver when opening the device. The
// empty name selects the platform default.
func (d DeviceDescriptor) nativeName() string {
	if d.IsDefault() {
		return ""
	}
	return d.ID
}

// StreamConfig is the immutable configuration of an opened stream.
type StreamConfig struct {
	Format    SampleFormat
	Frequency uint32
	Device    DeviceDescriptor
}

// WaveFormat returns the WAV description of streams using this config.
func (cfg StreamConfig) WaveFormat() (WaveFormat, error) {
	if _, err := cfg.Format.BytesPerFrame(); err != nil {
		return WaveFormat{}, err
	}
	return WaveFormat{
		SampleRate:    int(cfg.Frequency),
		BitsPerSample: cfg.Format.BitsPerSample(),
		Channels:      cfg.Format.Channels(),
	}, nil
}
