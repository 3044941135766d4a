package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/pipeline"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input> <output.wav>",
	Short: "decode a raw packet file into a wav file",
	Long: `decode a raw packet file into a 16 bit mono wav file

Optionally the packets can be sent through a simulated lossy channel.
Either a random (Gilbert) model is used, parameterized by the loss rate
and the average burst length, or a fixed pattern of lost and duplicated
packet indices. A pattern overrides the random model.`,
	Args: cobra.ExactArgs(2),
	Run:  decodeFile,
}

func init() {
	RootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().IntP("bitrate", "b", 0, "bitrate in bps the file has been encoded with")
	decodeCmd.Flags().IntP("samplerate", "s", 16000, "sample rate of the output file")
	decodeCmd.Flags().String("model-path", "", "directory containing the model files of the engine")
	addLossFlags(decodeCmd)
}

func decodeFile(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("codec.bitrate", cmd.Flags().Lookup("bitrate"))
	viper.BindPFlag("codec.samplerate", cmd.Flags().Lookup("samplerate"))
	viper.BindPFlag("codec.model-path", cmd.Flags().Lookup("model-path"))
	bindLossFlags(cmd)

	if err := checkCodecParameterValues(); err != nil {
		exit(err)
	}

	if err := checkLossParameterValues(); err != nil {
		exit(err)
	}

	logger := newLogger()
	defer logger.Sync()

	p := newPipeline(logger)

	if err := checkBitrate(p.Engine(), false); err != nil {
		exit(err)
	}

	if err := checkSamplerate(p.Engine()); err != nil {
		exit(err)
	}

	spec := lossSpec()
	req := pipeline.FileDecodeRequest{
		Input:        args[0],
		Output:       args[1],
		SampleRateHz: viper.GetInt("codec.samplerate"),
		Bitrate:      viper.GetInt("codec.bitrate"),
		ModelPath:    viper.GetString("codec.model-path"),
		Loss:         &spec,
	}

	logger.Debug("decoding file",
		zap.String("input", req.Input),
		zap.String("output", req.Output),
		zap.Int("bitrate", req.Bitrate),
		zap.Float64("loss_rate", spec.PacketLossRate),
		zap.Float64("burst_length", spec.AverageBurstLength))

	if err := p.DecodeFile(req); err != nil {
		exit(fmt.Errorf("unable to decode %s: %w", req.Input, err))
	}
}

func addLossFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("loss-rate", 0, "simulated packet loss rate [0...1]")
	cmd.Flags().Float64("burst-length", 1, "average number of consecutive lost packets (>= 1)")
	cmd.Flags().Int64("seed", 0, "seed of the loss simulation")
	cmd.Flags().IntSlice("lost", nil, "indices of lost packets (overrides the random model)")
	cmd.Flags().IntSlice("duplicated", nil, "indices of duplicated packets (overrides the random model)")
}

func bindLossFlags(cmd *cobra.Command) {
	viper.BindPFlag("loss.rate", cmd.Flags().Lookup("loss-rate"))
	viper.BindPFlag("loss.burst-length", cmd.Flags().Lookup("burst-length"))
	viper.BindPFlag("loss.seed", cmd.Flags().Lookup("seed"))
	viper.BindPFlag("loss.lost", cmd.Flags().Lookup("lost"))
	viper.BindPFlag("loss.duplicated", cmd.Flags().Lookup("duplicated"))
}
