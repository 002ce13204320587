package audiofs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned when the native driver cannot
	// enumerate devices. It is not retryable.
	ErrUnsupportedPlatform = errors.New("audio device enumeration is not supported on this platform")

	// ErrUnsupportedOperation is returned by stream operations that the
	// stream's direction does not support.
	ErrUnsupportedOperation = errors.New("operation not supported by continuous device stream")

	// ErrInvalidFormat is returned when an unknown sample format is used.
	ErrInvalidFormat = errors.New("invalid sample format")

	// ErrNativeBuffer matches every *NativeBufferError.
	ErrNativeBuffer = errors.New("native buffer error")

	// ErrDeviceOpen matches every *DeviceOpenError.
	ErrDeviceOpen = errors.New("unable to open audio device")

	// ErrStreamClosed is returned by operations on a closed stream.
	ErrStreamClosed = errors.New("device stream already closed")

	// ErrDeviceNotFound is returned when looking up an unknown device.
	ErrDeviceNotFound = errors.New("audio device not found")
)

// NativeCode is an error code reported by the native driver. CodeNoError
// means success.
type NativeCode int32

const (
	CodeNoError          NativeCode = 0
	CodeInvalidValue     NativeCode = 0xA003
	CodeInvalidOperation NativeCode = 0xA004
	CodeOutOfMemory      NativeCode = 0xA005
)

func (c NativeCode) String() string {
	switch c {
	case CodeNoError:
		return "no error"
	case CodeInvalidValue:
		return "invalid value"
	case CodeInvalidOperation:
		return "invalid operation"
	case CodeOutOfMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("native code %d", int32(c))
	}
}

// NativeBufferError is returned when the driver reports a failure while
// uploading, attaching or playing a buffer. The stream remains usable.
type NativeBufferError struct {
	Op   string
	Code NativeCode
}

func (e *NativeBufferError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Code)
}

func (e *NativeBufferError) Is(target error) bool {
	return target == ErrNativeBuffer
}

// DeviceOpenError is returned when a stream fails to open its device
// session. Callers should enumerate again and pick another device.
type DeviceOpenError struct {
	Device string
	Err    error
}

func (e *DeviceOpenError) Error() string {
	name := e.Device
	if name == "" {
		name = "default device"
	}
	return fmt.Sprintf("unable to open audio device %q: %v", name, e.Err)
}

func (e *DeviceOpenError) Unwrap() []error {
	return []error{ErrDeviceOpen, e.Err}
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, what)
}
