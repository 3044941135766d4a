package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/pipeline"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <input.wav> <output>",
	Short: "encode a wav file into a raw packet file",
	Long: `encode a wav file into a raw packet file

The wav file is mixed down to mono and encoded frame by frame. The output
file is the plain concatenation of fixed size packets without any header;
the bitrate is needed again for decoding.`,
	Args: cobra.ExactArgs(2),
	Run:  encodeFile,
}

func init() {
	RootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().IntP("bitrate", "b", 0, "bitrate in bps (0 = lowest bitrate of the engine)")
	encodeCmd.Flags().Bool("preprocessing", false, "high-pass filter the audio before encoding")
	encodeCmd.Flags().Bool("dtx", false, "suppress packets of silent frames (discontinuous transmission)")
	encodeCmd.Flags().String("model-path", "", "directory containing the model files of the engine")
}

func encodeFile(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("codec.bitrate", cmd.Flags().Lookup("bitrate"))
	viper.BindPFlag("codec.preprocessing", cmd.Flags().Lookup("preprocessing"))
	viper.BindPFlag("codec.dtx", cmd.Flags().Lookup("dtx"))
	viper.BindPFlag("codec.model-path", cmd.Flags().Lookup("model-path"))

	if err := checkCodecParameterValues(); err != nil {
		exit(err)
	}

	logger := newLogger()
	defer logger.Sync()

	p := newPipeline(logger)

	if err := checkBitrate(p.Engine(), true); err != nil {
		exit(err)
	}

	req := pipeline.FileEncodeRequest{
		Input:         args[0],
		Output:        args[1],
		Bitrate:       viper.GetInt("codec.bitrate"),
		Preprocessing: viper.GetBool("codec.preprocessing"),
		DTX:           viper.GetBool("codec.dtx"),
		ModelPath:     viper.GetString("codec.model-path"),
	}

	logger.Debug("encoding file",
		zap.String("input", req.Input),
		zap.String("output", req.Output),
		zap.Int("bitrate", req.Bitrate))

	if err := p.EncodeFile(req); err != nil {
		exit(fmt.Errorf("unable to encode %s: %w", req.Input, err))
	}
}
