package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/companyzero/audiodev/audiofs"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/jrick/flagfile"
	"github.com/mitchellh/go-homedir"
)

const appName = "audiodevctl"

var (
	// errCmdDone signals loadConfig() completed everything the cmd had to
	// do and main() should exit.
	errCmdDone = errors.New("cmd done")
)

type config struct {
	CfgFile string

	// audio section
	Format       audiofs.SampleFormat
	Frequency    uint32
	BufferFrames int

	// log section
	LogFile     string
	DebugLevel  string
	MaxLogFiles int

	// metrics section
	MetricsListen string

	Command string
	Args    []string
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [options] <command> [command options]\n\n", appName)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  lsdev    List capture and playback devices")
	fmt.Fprintln(w, "  record   Record from a capture device into a WAV file")
	fmt.Fprintln(w, "  play     Play a WAV file on a playback device")
	fmt.Fprintln(w, "\nOptions:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// loadConfig parses the command line in args and the config file it
// points to. A missing config file is only an error when it was explicitly
// requested.
func loadConfig(args []string) (*config, error) {
	defaultAppDir := dcrutil.AppDataDir(appName, false)
	defaultCfgFile := filepath.Join(defaultAppDir, appName+".conf")
	defaultLogFile := filepath.Join(defaultAppDir, "logs", appName+".log")

	// Parse CLI arguments.
	fs := flag.NewFlagSet("CLI Arguments", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flagCfgFile := fs.String("cfg", defaultCfgFile, "Config file to load")
	flagDebugLevel := fs.String("debuglevel", "", "Debug level (overrides config file)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(os.Stdout, fs)
			return nil, errCmdDone
		}
		return nil, err
	}
	if fs.NArg() == 0 {
		usage(os.Stderr, fs)
		return nil, fmt.Errorf("command not specified")
	}

	cfgFile, err := homedir.Expand(*flagCfgFile)
	if err != nil {
		return nil, fmt.Errorf("invalid value for flag 'cfg': %w", err)
	}
	explicitCfg := false
	fs.Visit(func(f *flag.Flag) { explicitCfg = explicitCfg || f.Name == "cfg" })

	// Define config file flags.
	cfs := flag.NewFlagSet("Config Options", flag.ContinueOnError)
	cfs.SetOutput(io.Discard)
	flagFormat := cfs.String("audio.format", audiofs.DefaultFormat.String(), "Sample format of opened streams")
	flagFrequency := cfs.Uint("audio.frequency", uint(audiofs.DefaultFrequency), "Sample rate of opened streams")
	flagBufferFrames := cfs.Int("audio.bufferframes", 0, "Capture buffer size in frames")
	flagLogFile := cfs.String("log.logfile", defaultLogFile, "Log file location")
	flagConfDebugLevel := cfs.String("log.debuglevel", "info", "Debug Level")
	flagMaxLogFiles := cfs.Int("log.maxlogfiles", 3, "Max log files")
	flagMetricsListen := cfs.String("metrics.listen", "", "Address of the Prometheus metrics endpoint")

	// Load config from file.
	f, err := os.Open(cfgFile)
	switch {
	case os.IsNotExist(err) && !explicitCfg:
		// Run with defaults.
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		parser := flagfile.Parser{
			ParseSections: true,
		}
		if err := parser.Parse(f, cfs); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s: %w", cfgFile, err)
		}
	}

	// Sanity check loaded flags.
	format, err := audiofs.ParseSampleFormat(*flagFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid value for flag 'audio.format': %w", err)
	}
	if *flagFrequency == 0 || *flagFrequency > 384000 {
		return nil, fmt.Errorf("invalid value for flag 'audio.frequency': %d", *flagFrequency)
	}
	if *flagBufferFrames < 0 {
		return nil, fmt.Errorf("flag 'audio.bufferframes' cannot be negative")
	}
	logFile, err := homedir.Expand(*flagLogFile)
	if err != nil {
		return nil, fmt.Errorf("invalid value for flag 'log.logfile': %w", err)
	}

	debugLevel := *flagConfDebugLevel
	if *flagDebugLevel != "" {
		debugLevel = *flagDebugLevel
	}

	return &config{
		CfgFile:       cfgFile,
		Format:        format,
		Frequency:     uint32(*flagFrequency),
		BufferFrames:  *flagBufferFrames,
		LogFile:       logFile,
		DebugLevel:    strings.ToLower(debugLevel),
		MaxLogFiles:   *flagMaxLogFiles,
		MetricsListen: *flagMetricsListen,
		Command:       fs.Arg(0),
		Args:          fs.Args()[1:],
	}, nil
}
