package audiofs

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/decred/slog"
)

// fallbackDefaultName is the display name of the default entry when the
// driver reports an empty default device name.
const fallbackDefaultName = "Default device"

type config struct {
	driver       Driver
	log          slog.Logger
	metrics      *Metrics
	format       SampleFormat
	frequency    uint32
	bufferFrames int
}

// Option is a configuration option for a Directory.
type Option func(*config)

// WithDriver sets the native driver used by the directory and every stream
// opened from it. The caller retains ownership of the driver. When not
// specified, a process-wide driver is created on first use.
func WithDriver(drv Driver) Option {
	return func(cfg *config) {
		cfg.driver = drv
	}
}

// WithLogger defines the logger to use.
func WithLogger(log slog.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// WithMetrics sets the metrics updated by streams opened from the
// directory.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithFormat sets the default sample format of the listed device files.
func WithFormat(f SampleFormat) Option {
	return func(cfg *config) {
		cfg.format = f
	}
}

// WithFrequency sets the default frequency (in Hz) of the listed device
// files.
func WithFrequency(hz uint32) Option {
	return func(cfg *config) {
		cfg.frequency = hz
	}
}

// WithCaptureBufferFrames sets the size, in frames, of the buffer that
// holds captured samples until they are read. The default is one second
// worth of frames.
func WithCaptureBufferFrames(frames int) Option {
	return func(cfg *config) {
		cfg.bufferFrames = frames
	}
}

// Directory is the folder of devices of one direction.
type Directory struct {
	dir Direction
	cfg config

	mtx    sync.Mutex
	driver Driver
}

// NewDirectory returns the device folder for the given direction. No
// native calls are performed until devices are enumerated or a stream is
// used.
func NewDirectory(dir Direction, opts ...Option) *Directory {
	cfg := config{
		log:       slog.Disabled,
		format:    DefaultFormat,
		frequency: DefaultFrequency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Directory{dir: dir, cfg: cfg, driver: cfg.driver}
}

// ID is the stable path of the directory.
func (d *Directory) ID() string {
	if d.dir == Capture {
		return "/audio/capture/"
	}
	return "/audio/playback/"
}

// Name is the display name of the directory.
func (d *Directory) Name() string {
	if d.dir == Capture {
		return "Capture devices"
	}
	return "Playback devices"
}

// Direction returns whether the directory lists capture or playback
// devices.
func (d *Directory) Direction() Direction {
	return d.dir
}

// nativeDriver returns the driver of the directory, resolving the shared
// one on first use.
func (d *Directory) nativeDriver() (Driver, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.driver != nil {
		return d.driver, nil
	}
	drv, err := processDriver(d.cfg.log)
	if err != nil {
		return nil, err
	}
	d.driver = drv
	return drv, nil
}

func (d *Directory) newFile(desc DeviceDescriptor) *DeviceFile {
	return &DeviceFile{
		desc:      desc,
		parent:    d,
		Format:    d.cfg.format,
		Frequency: d.cfg.frequency,
	}
}

// Devices lists the devices of the directory. The first entry is always the
// default device, followed by every device reported by the driver in its
// native order. The default device may therefore be listed twice.
//
// Device files are built fresh on every call. Errors are yielded with a nil
// file and end the sequence. ErrUnsupportedPlatform is returned when the
// platform has no usable audio driver.
func (d *Directory) Devices(ctx context.Context) iter.Seq2[*DeviceFile, error] {
	return func(yield func(*DeviceFile, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		drv, err := d.nativeDriver()
		if err != nil {
			yield(nil, err)
			return
		}

		defName, err := drv.DefaultDevice(d.dir)
		if err != nil {
			yield(nil, fmt.Errorf("unable to query default %s device: %w", d.dir, err))
			return
		}
		if defName == "" {
			defName = fallbackDefaultName
		}
		def := DeviceDescriptor{
			ID:          DefaultDeviceID,
			DisplayName: defName,
			Direction:   d.dir,
			isDefault:   true,
		}
		if !yield(d.newFile(def), nil) {
			return
		}

		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		names, err := drv.Devices(d.dir)
		if err != nil {
			yield(nil, fmt.Errorf("unable to enumerate %s devices: %w", d.dir, err))
			return
		}
		d.cfg.log.Tracef("Enumerated %d %s devices (default %q)", len(names),
			d.dir, defName)

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			desc := DeviceDescriptor{ID: name, DisplayName: name, Direction: d.dir}
			if !yield(d.newFile(desc), nil) {
				return
			}
		}
	}
}

// Device returns the first listed device file with the given ID.
func (d *Directory) Device(ctx context.Context, id string) (*DeviceFile, error) {
	for f, err := range d.Devices(ctx) {
		if err != nil {
			return nil, err
		}
		if f.ID() == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s device %q: %w", d.dir, id, ErrDeviceNotFound)
}
