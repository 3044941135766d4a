package cmd

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audiocodec"
	_ "github.com/dh1tw/speechBridge/audiocodec/mock"
	"github.com/dh1tw/speechBridge/audiocodec/opus"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/pipeline"
)

// newEngine returns the engine selected by codec.engine. The opus engine
// is configured from the opus.* settings.
func newEngine() (audiocodec.Engine, error) {
	name := viper.GetString("codec.engine")
	if name != "opus" {
		return audiocodec.Lookup(name)
	}

	app, err := getOpusApplication(viper.GetString("opus.application"))
	if err != nil {
		return nil, err
	}
	bw, err := getOpusMaxBandwith(viper.GetString("opus.max-bandwidth"))
	if err != nil {
		return nil, err
	}

	return opus.New(
		opus.Application(app),
		opus.MaxBandwidth(bw),
		opus.Complexity(viper.GetInt("opus.complexity")),
	), nil
}

// newPipeline builds the pipeline for the configured engine.
func newPipeline(logger *zap.Logger) *pipeline.Pipeline {
	engine, err := newEngine()
	if err != nil {
		exit(err)
	}

	p, err := pipeline.New(engine,
		pipeline.Logger(logger),
		pipeline.ChunkFrames(viper.GetInt("pipeline.chunk-frames")))
	if err != nil {
		exit(err)
	}
	return p
}

// lossSpec assembles the simulated channel from the loss.* settings.
func lossSpec() loss.Spec {
	return loss.Spec{
		Params: loss.Params{
			PacketLossRate:     viper.GetFloat64("loss.rate"),
			AverageBurstLength: viper.GetFloat64("loss.burst-length"),
		},
		Pattern: loss.NewPattern(viper.GetIntSlice("loss.lost"), viper.GetIntSlice("loss.duplicated")),
		Seed:    uint64(viper.GetInt64("loss.seed")),
	}
}
