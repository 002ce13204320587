package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/companyzero/audiodev/audiofs"
	"github.com/companyzero/audiodev/internal/assert"
	"github.com/companyzero/audiodev/internal/testutils"
	"github.com/mitchellh/go-homedir"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "audiodevctl")
	cfgFile := filepath.Join(dir, "audiodevctl.conf")
	content := `
[audio]
format = mono8
frequency = 8000
bufferframes = 800

[log]
logfile = ~/logs/adc.log
debuglevel = debug

[metrics]
listen = 127.0.0.1:9100
`
	assert.NilErr(t, os.WriteFile(cfgFile, []byte(content), 0o600))

	cfg, err := loadConfig([]string{"-cfg", cfgFile, "record", "-dev", "1"})
	assert.NilErr(t, err)
	assert.DeepEqual(t, cfg.Format, audiofs.Mono8)
	assert.DeepEqual(t, cfg.Frequency, uint32(8000))
	assert.DeepEqual(t, cfg.BufferFrames, 800)
	home, err := homedir.Dir()
	assert.NilErr(t, err)
	assert.DeepEqual(t, cfg.LogFile, filepath.Join(home, "logs", "adc.log"))
	assert.DeepEqual(t, cfg.DebugLevel, "debug")
	assert.DeepEqual(t, cfg.MetricsListen, "127.0.0.1:9100")
	assert.DeepEqual(t, cfg.Command, "record")
	assert.DeepEqual(t, cfg.Args, []string{"-dev", "1"})

	// The command line debug level overrides the file.
	cfg, err = loadConfig([]string{"-cfg", cfgFile, "-debuglevel", "TRACE", "lsdev"})
	assert.NilErr(t, err)
	assert.DeepEqual(t, cfg.DebugLevel, "trace")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	dir := testutils.TempTestDir(t, "audiodevctl")
	missing := filepath.Join(dir, "missing.conf")
	_, err := loadConfig([]string{"-cfg", missing, "lsdev"})
	assert.NonNilErr(t, err)

	badFormat := filepath.Join(dir, "bad.conf")
	assert.NilErr(t, os.WriteFile(badFormat, []byte("[audio]\nformat = surround\n"), 0o600))
	_, err = loadConfig([]string{"-cfg", badFormat, "lsdev"})
	assert.ErrorIs(t, err, audiofs.ErrInvalidFormat)

	badFreq := filepath.Join(dir, "freq.conf")
	assert.NilErr(t, os.WriteFile(badFreq, []byte("[audio]\nfrequency = 0\n"), 0o600))
	_, err = loadConfig([]string{"-cfg", badFreq, "lsdev"})
	assert.NonNilErr(t, err)

	_, err = loadConfig([]string{"-cfg", badFormat})
	assert.NonNilErr(t, err)

	// Home directories of other users are not expanded.
	badLog := filepath.Join(dir, "log.conf")
	assert.NilErr(t, os.WriteFile(badLog, []byte("[log]\nlogfile = ~other/adc.log\n"), 0o600))
	_, err = loadConfig([]string{"-cfg", badLog, "lsdev"})
	assert.NonNilErr(t, err)
}
