//go:build !cgo || noaudio

// This driver is only used in cgo-less and noaudio builds.

package audiofs

import "github.com/decred/slog"

func init() {
	newDriver = newNullDriver
}

type nullDriver struct{}

func newNullDriver(slog.Logger) (Driver, error) {
	return nullDriver{}, nil
}

func (nullDriver) Name() string { return "nullaudio" }

func (nullDriver) Devices(Direction) ([]string, error) {
	return nil, ErrUnsupportedPlatform
}

func (nullDriver) DefaultDevice(Direction) (string, error) {
	return "", ErrUnsupportedPlatform
}

func (nullDriver) OpenCapture(string, SampleFormat, uint32, int) (CaptureDevice, error) {
	return nil, ErrUnsupportedPlatform
}

func (nullDriver) OpenPlayback(string, SampleFormat, uint32) (PlaybackDevice, error) {
	return nil, ErrUnsupportedPlatform
}

func (nullDriver) Close() error { return nil }
