package session

import (
	"fmt"
	"os"

	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/utils"
)

// CodecConfig holds the parameters negotiated when a session is
// initialized. SampleRateHz and NumChannels are fixed for the lifetime
// of the session; BitrateBps may be changed on an open encoder session.
type CodecConfig struct {
	SampleRateHz        int
	NumChannels         int
	BitrateBps          int
	EnableDTX           bool
	EnablePreprocessing bool
	// ModelPath points to a directory with the engine's model files. An
	// empty path selects the engine's built-in model.
	ModelPath string
}

// DefaultConfig returns a mono configuration at 16kHz (or the engine's
// first sample rate if 16kHz is not supported) and the lowest bitrate of
// the engine.
func DefaultConfig(e audiocodec.Engine) CodecConfig {
	cfg := CodecConfig{
		SampleRateHz: 16000,
		NumChannels:  1,
	}
	if srs := e.SupportedSamplerates(); !utils.IntInSlice(16000, srs) && len(srs) > 0 {
		cfg.SampleRateHz = srs[0]
	}
	if brs := e.SupportedBitrates(); len(brs) > 0 {
		cfg.BitrateBps = lowest(brs)
	}
	return cfg
}

func lowest(list []int) int {
	m := list[0]
	for _, v := range list[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// withDefaults fills in the optional fields.
func (c CodecConfig) withDefaults(e audiocodec.Engine) CodecConfig {
	if c.NumChannels == 0 {
		c.NumChannels = 1
	}
	if c.BitrateBps == 0 {
		if brs := e.SupportedBitrates(); len(brs) > 0 {
			c.BitrateBps = lowest(brs)
		}
	}
	return c
}

// Validate checks the configuration against the capabilities of the
// engine. A zero BitrateBps is not checked.
func (c CodecConfig) Validate(e audiocodec.Engine) error {
	const op = "validate"

	if !utils.IntInSlice(c.SampleRateHz, e.SupportedSamplerates()) {
		return newErrorf(ConfigError, op, "sample rate %d Hz not supported by %s (supported: %v)",
			c.SampleRateHz, e.Name(), e.SupportedSamplerates())
	}

	if c.NumChannels != 1 {
		return newErrorf(ConfigError, op, "%d channels requested; only mono is supported",
			c.NumChannels)
	}

	if c.BitrateBps != 0 && !utils.IntInSlice(c.BitrateBps, e.SupportedBitrates()) {
		return newErrorf(ConfigError, op, "bitrate %d bps not supported by %s (supported: %v)",
			c.BitrateBps, e.Name(), e.SupportedBitrates())
	}

	if c.ModelPath != "" {
		if err := checkModelPath(c.ModelPath); err != nil {
			return newError(ConfigError, op, err)
		}
	}

	return nil
}

func checkModelPath(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model path: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("model path %s is not a directory", path)
	}
	d, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("model path: %w", err)
	}
	return d.Close()
}

func (c CodecConfig) engineOptions() []audiocodec.Option {
	return []audiocodec.Option{
		audiocodec.Samplerate(c.SampleRateHz),
		audiocodec.Channels(c.NumChannels),
		audiocodec.Bitrate(c.BitrateBps),
		audiocodec.DTX(c.EnableDTX),
		audiocodec.ModelPath(c.ModelPath),
	}
}
