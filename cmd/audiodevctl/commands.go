package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/companyzero/audiodev/audiofs"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mitchellh/go-homedir"
	strduration "github.com/xhit/go-str2duration/v2"
	"golang.org/x/sync/errgroup"
)

// wavFormatPCM is the WAV audio format tag of integer PCM.
const wavFormatPCM = 1

// findDevice returns the device of dir referenced either by its index in the
// listing or by its ID.
func findDevice(ctx context.Context, dir *audiofs.Directory, ref string) (*audiofs.DeviceFile, error) {
	idx, err := strconv.Atoi(ref)
	if err != nil {
		return dir.Device(ctx, ref)
	}
	i := 0
	for f, err := range dir.Devices(ctx) {
		if err != nil {
			return nil, err
		}
		if i == idx {
			return f, nil
		}
		i++
	}
	return nil, fmt.Errorf("%s device index %d: %w", dir.Direction(), idx,
		audiofs.ErrDeviceNotFound)
}

func (a *app) cmdListDevices(ctx context.Context, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range []audiofs.Direction{audiofs.Capture, audiofs.Playback} {
		dir := audiofs.NewDirectory(d, a.dirOpts()...)
		fmt.Fprintf(tw, "%s (%s)\n", dir.Name(), dir.ID())
		i := 0
		for f, err := range dir.Devices(ctx) {
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", i, f.ID(), f.Name())
			i++
		}
	}
	return tw.Flush()
}

func (a *app) cmdRecord(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	flagDev := fs.String("dev", audiofs.DefaultDeviceID, "Device index or ID")
	flagOut := fs.String("out", "", "Output WAV file")
	flagDuration := fs.String("duration", "10s", "Recording duration")
	flagPoll := fs.Duration("poll", 20*time.Millisecond, "Interval between capture reads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *flagOut == "" {
		return fmt.Errorf("flag 'out' cannot be empty")
	}
	outPath, err := homedir.Expand(*flagOut)
	if err != nil {
		return err
	}
	duration, err := strduration.ParseDuration(*flagDuration)
	if err != nil {
		return fmt.Errorf("invalid value for flag 'duration': %v", err)
	}
	if *flagPoll <= 0 {
		return fmt.Errorf("flag 'poll' must be positive")
	}

	dir := audiofs.NewDirectory(audiofs.Capture, a.dirOpts()...)
	f, err := findDevice(ctx, dir, *flagDev)
	if err != nil {
		return err
	}
	cs, err := f.OpenCapture()
	if err != nil {
		return err
	}
	defer cs.Close()
	wf, err := cs.WaveFormat()
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := wav.NewEncoder(out, wf.SampleRate, wf.BitsPerSample, wf.Channels, wavFormatPCM)

	a.log.Infof("Recording %s from %q (%s, %d Hz) into %s", duration,
		f.Name(), cs.Config().Format, wf.SampleRate, outPath)

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan []byte, 16)

	// Poll the stream. Reads never wait for data, so the ticker paces
	// them.
	g.Go(func() error {
		defer close(chunks)
		ticker := time.NewTicker(*flagPoll)
		defer ticker.Stop()
		buf := make([]byte, wf.SampleRate*wf.Channels*wf.BitsPerSample/8/10)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
			n, err := cs.Read(buf)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case chunks <- chunk:
			case <-gctx.Done():
				return nil
			}
		}
	})

	var total int
	g.Go(func() error {
		var samples []int
		for chunk := range chunks {
			var err error
			samples, err = audiofs.PCMToInts(chunk, wf.BitsPerSample, samples[:0])
			if err != nil {
				return err
			}
			err = enc.Write(&audio.IntBuffer{
				Format: &audio.Format{
					NumChannels: wf.Channels,
					SampleRate:  wf.SampleRate,
				},
				Data:           samples,
				SourceBitDepth: wf.BitsPerSample,
			})
			if err != nil {
				return fmt.Errorf("unable to write WAV data: %w", err)
			}
			total += len(chunk)
		}
		return nil
	})

	err = g.Wait()
	if errClose := enc.Close(); err == nil && errClose != nil {
		err = fmt.Errorf("unable to finish WAV file: %w", errClose)
	}
	if err != nil {
		return err
	}
	a.log.Infof("Recorded %d bytes of PCM", total)
	return nil
}

func (a *app) cmdPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	flagDev := fs.String("dev", audiofs.DefaultDeviceID, "Device index or ID")
	flagIn := fs.String("in", "", "Input WAV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *flagIn == "" {
		return fmt.Errorf("flag 'in' cannot be empty")
	}

	inPath, err := homedir.Expand(*flagIn)
	if err != nil {
		return err
	}
	clip, err := loadWAV(inPath)
	if err != nil {
		return err
	}

	dir := audiofs.NewDirectory(audiofs.Playback, a.dirOpts()...)
	f, err := findDevice(ctx, dir, *flagDev)
	if err != nil {
		return err
	}
	f.Format = clip.format
	f.Frequency = clip.frequency
	ps, err := f.OpenPlayback()
	if err != nil {
		return err
	}
	defer ps.Close()

	a.log.Infof("Playing %s (%s, %d Hz, %s) on %q", inPath, clip.format,
		clip.frequency, clip.duration, f.Name())
	if _, err := ps.Write(clip.pcm); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		if errors.Is(context.Cause(ctx), context.Canceled) {
			a.log.Infof("Playback interrupted")
		}
	case <-time.After(clip.duration):
	}
	return nil
}

// wavClip is the raw PCM content of a WAV file.
type wavClip struct {
	pcm       []byte
	format    audiofs.SampleFormat
	frequency uint32
	duration  time.Duration
}

// loadWAV decodes the WAV file at path into PCM playable by a device
// stream.
func loadWAV(path string) (*wavClip, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	format, err := audiofs.FormatFor(int(dec.NumChans), int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("unsupported WAV file: %w", err)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to decode WAV data: %w", err)
	}
	duration, err := dec.Duration()
	if err != nil {
		return nil, err
	}
	pcm, err := audiofs.IntsToPCM(buf.Data, int(dec.BitDepth), nil)
	if err != nil {
		return nil, err
	}
	return &wavClip{
		pcm:       pcm,
		format:    format,
		frequency: dec.SampleRate,
		duration:  duration,
	}, nil
}
