package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/hraban/opus.v2"

	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/utils"
)

func checkCodecParameterValues() error {

	engine := viper.GetString("codec.engine")
	if !utils.StringInSlice(engine, audiocodec.Engines()) {
		return &parmError{
			parm: "codec.engine",
			msg:  fmt.Sprintf("allowed values are %s", strings.Join(audiocodec.Engines(), ", ")),
		}
	}

	if engine == "opus" {
		opusBw := viper.GetString("opus.max-bandwidth")
		if _, err := getOpusMaxBandwith(opusBw); err != nil {
			return &parmError{
				parm: "opus.max-bandwidth",
				msg:  "allowed values are NARROWBAND, MEDIUMBAND, WIDEBAND, SUPERWIDEBAND, FULLBAND",
			}
		}

		opusApp := viper.GetString("opus.application")
		if _, err := getOpusApplication(opusApp); err != nil {
			return &parmError{
				parm: "opus.application",
				msg:  "allowed values are VOIP, AUDIO or RESTRICTED_LOWDELAY",
			}
		}

		if viper.GetInt("opus.complexity") < 0 || viper.GetInt("opus.complexity") > 10 {
			return &parmError{
				parm: "opus.complexity",
				msg:  "allowed values are [0...10]",
			}
		}
	}

	if viper.GetInt("pipeline.chunk-frames") <= 0 {
		return &parmError{
			parm: "pipeline.chunk-frames",
			msg:  "value must be > 0",
		}
	}

	return nil
}

// checkBitrate validates codec.bitrate against the engine's table. A
// bitrate of 0 selects the engine's default when allowZero is set.
func checkBitrate(e audiocodec.Engine, allowZero bool) error {
	bitrate := viper.GetInt("codec.bitrate")
	if bitrate == 0 && allowZero {
		return nil
	}
	if !utils.IntInSlice(bitrate, e.SupportedBitrates()) {
		return &parmError{
			parm: "codec.bitrate",
			msg:  fmt.Sprintf("allowed values for %s are %v", e.Name(), e.SupportedBitrates()),
		}
	}
	return nil
}

func checkSamplerate(e audiocodec.Engine) error {
	if sr := viper.GetInt("codec.samplerate"); !utils.IntInSlice(sr, e.SupportedSamplerates()) {
		return &parmError{
			parm: "codec.samplerate",
			msg:  fmt.Sprintf("allowed values for %s are %v", e.Name(), e.SupportedSamplerates()),
		}
	}
	return nil
}

func checkLossParameterValues() error {

	if rate := viper.GetFloat64("loss.rate"); rate < 0 || rate > 1 {
		return &parmError{
			parm: "loss.rate",
			msg:  "allowed values are [0...1]",
		}
	}

	if viper.GetFloat64("loss.burst-length") < 1 {
		return &parmError{
			parm: "loss.burst-length",
			msg:  "value must be >= 1",
		}
	}

	for _, key := range []string{"loss.lost", "loss.duplicated"} {
		for _, idx := range viper.GetIntSlice(key) {
			if idx < 0 {
				return &parmError{
					parm: key,
					msg:  "packet indices must be >= 0",
				}
			}
		}
	}

	return nil
}

func checkHTTPParameterValues() error {
	if port := viper.GetInt("http.port"); port < 0 || port > 65535 {
		return &parmError{
			parm: "http.port",
			msg:  "allowed values are [0...65535]",
		}
	}
	return nil
}

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v\n", p.parm, p.msg)
}

// getOpusApplication returns the integer representation of a
// Opus application value string (typically read from application settings)
func getOpusApplication(app string) (opus.Application, error) {
	switch strings.ToLower(app) {
	case "audio":
		return opus.AppAudio, nil
	case "restricted_lowdelay":
		return opus.AppRestrictedLowdelay, nil
	case "voip":
		return opus.AppVoIP, nil
	}
	return 0, errors.New("unknown opus application value")
}

// getOpusMaxBandwith returns the integer representation of an
// Opus max bandwidth value string (typically read from application settings)
func getOpusMaxBandwith(maxBw string) (opus.Bandwidth, error) {
	switch strings.ToLower(maxBw) {
	case "narrowband":
		return opus.Narrowband, nil
	case "mediumband":
		return opus.Mediumband, nil
	case "wideband":
		return opus.Wideband, nil
	case "superwideband":
		return opus.SuperWideband, nil
	case "fullband":
		return opus.Fullband, nil
	}

	return 0, errors.New("unknown opus max bandwidth value")
}
