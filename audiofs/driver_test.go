package audiofs

import (
	"slices"
	"sync"
	"testing"
)

// testDriver is a Driver that records native calls and serves captured data
// pushed by tests.
type testDriver struct {
	t testing.TB

	mtx      sync.Mutex
	calls    []string
	defaults map[Direction]string
	devices  map[Direction][]string

	defaultErr   error
	devicesErr   error
	openErr      error
	genSourceErr error

	bufferCode NativeCode
	attachCode NativeCode
	playCode   NativeCode

	captures  []*testCapture
	playbacks []*testPlayback
}

func newTestDriver(t testing.TB) *testDriver {
	return &testDriver{
		t: t,
		defaults: map[Direction]string{
			Capture:  "Built-in Mic",
			Playback: "Speakers",
		},
		devices: map[Direction][]string{
			Capture:  {"Built-in Mic", "USB Mic"},
			Playback: {"HDMI", "Speakers"},
		},
	}
}

func (td *testDriver) record(call string) {
	td.mtx.Lock()
	td.calls = append(td.calls, call)
	td.mtx.Unlock()
}

// takeCalls returns the recorded calls and clears them.
func (td *testDriver) takeCalls() []string {
	td.mtx.Lock()
	defer td.mtx.Unlock()
	calls := td.calls
	td.calls = nil
	return calls
}

func (td *testDriver) Name() string { return "testaudio" }

func (td *testDriver) Devices(dir Direction) ([]string, error) {
	td.record("devices")
	if td.devicesErr != nil {
		return nil, td.devicesErr
	}
	return slices.Clone(td.devices[dir]), nil
}

func (td *testDriver) DefaultDevice(dir Direction) (string, error) {
	td.record("default")
	if td.defaultErr != nil {
		return "", td.defaultErr
	}
	return td.defaults[dir], nil
}

func (td *testDriver) OpenCapture(name string, format SampleFormat, frequency uint32,
	bufferFrames int) (CaptureDevice, error) {

	td.record("open capture " + name)
	if td.openErr != nil {
		return nil, td.openErr
	}
	bpf, err := format.BytesPerFrame()
	if err != nil {
		return nil, err
	}
	tc := &testCapture{drv: td, bpf: bpf, bufferFrames: bufferFrames}
	td.mtx.Lock()
	td.captures = append(td.captures, tc)
	td.mtx.Unlock()
	return tc, nil
}

func (td *testDriver) OpenPlayback(name string, format SampleFormat, frequency uint32) (PlaybackDevice, error) {
	td.record("open playback " + name)
	if td.openErr != nil {
		return nil, td.openErr
	}
	tp := &testPlayback{drv: td}
	td.mtx.Lock()
	td.playbacks = append(td.playbacks, tp)
	td.mtx.Unlock()
	return tp, nil
}

func (td *testDriver) Close() error {
	td.record("close driver")
	return nil
}

// lastCapture returns the most recently opened capture session.
func (td *testDriver) lastCapture() *testCapture {
	td.t.Helper()
	td.mtx.Lock()
	defer td.mtx.Unlock()
	if len(td.captures) == 0 {
		td.t.Fatal("no capture sessions opened")
	}
	return td.captures[len(td.captures)-1]
}

// lastPlayback returns the most recently opened playback session.
func (td *testDriver) lastPlayback() *testPlayback {
	td.t.Helper()
	td.mtx.Lock()
	defer td.mtx.Unlock()
	if len(td.playbacks) == 0 {
		td.t.Fatal("no playback sessions opened")
	}
	return td.playbacks[len(td.playbacks)-1]
}

type testCapture struct {
	drv          *testDriver
	bpf          int
	bufferFrames int

	mtx     sync.Mutex
	data    []byte
	started bool
	closed  bool
}

// push makes data available for capturing.
func (tc *testCapture) push(data []byte) {
	tc.mtx.Lock()
	tc.data = append(tc.data, data...)
	tc.mtx.Unlock()
}

func (tc *testCapture) Start() error {
	tc.drv.record("start")
	tc.mtx.Lock()
	tc.started = true
	tc.mtx.Unlock()
	return nil
}

func (tc *testCapture) Stop() error {
	tc.drv.record("stop")
	tc.mtx.Lock()
	tc.started = false
	tc.mtx.Unlock()
	return nil
}

func (tc *testCapture) AvailableFrames() int {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return len(tc.data) / tc.bpf
}

func (tc *testCapture) CaptureFrames(dst []byte, frames int) error {
	tc.drv.record("capture")
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	n := copy(dst[:frames*tc.bpf], tc.data)
	tc.data = tc.data[n:]
	return nil
}

func (tc *testCapture) Close() {
	tc.drv.record("close capture")
	tc.mtx.Lock()
	tc.closed = true
	tc.mtx.Unlock()
}

type testPlayback struct {
	drv *testDriver

	submitted [][]byte
	formats   []SampleFormat
	freqs     []uint32
}

func (tp *testPlayback) GenSource() error {
	tp.drv.record("gen source")
	return tp.drv.genSourceErr
}

func (tp *testPlayback) BufferData(data []byte, format SampleFormat, frequency uint32) NativeCode {
	tp.drv.record("buffer data")
	if tp.drv.bufferCode == CodeNoError {
		tp.submitted = append(tp.submitted, slices.Clone(data))
		tp.formats = append(tp.formats, format)
		tp.freqs = append(tp.freqs, frequency)
	}
	return tp.drv.bufferCode
}

func (tp *testPlayback) AttachBuffer() NativeCode {
	tp.drv.record("attach buffer")
	return tp.drv.attachCode
}

func (tp *testPlayback) Play() NativeCode {
	tp.drv.record("play")
	return tp.drv.playCode
}

func (tp *testPlayback) StopSource()   { tp.drv.record("stop source") }
func (tp *testPlayback) DeleteSource() { tp.drv.record("delete source") }
func (tp *testPlayback) Close()        { tp.drv.record("close playback") }

// testDirectory returns a directory backed by a new test driver.
func testDirectory(t testing.TB, dir Direction, opts ...Option) (*Directory, *testDriver) {
	drv := newTestDriver(t)
	opts = append([]Option{WithDriver(drv)}, opts...)
	return NewDirectory(dir, opts...), drv
}
