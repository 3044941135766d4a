// Copyright © 2016 Tobias Wellnitz, DH1TW <Tobias.Wellnitz@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "speechBridge",
	Short: "Encode, decode and stream speech through a low bitrate codec",
	Long: `speechBridge drives a low bitrate speech codec over buffers, files and
websocket streams. Decoding can be run over a simulated lossy channel
(random loss, burst loss or a fixed loss pattern) to evaluate the
robustness of the decoder.`,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.speechBridge/speechBridge.[yaml|toml|json])")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose (development) logging")
	RootCmd.PersistentFlags().StringP("engine", "e", "opus", "codec engine (opus, mock)")
	RootCmd.PersistentFlags().String("opus-application", "voip", "opus application (voip, audio, restricted_lowdelay)")
	RootCmd.PersistentFlags().String("opus-max-bandwidth", "wideband", "opus max bandwidth (narrowband, mediumband, wideband, superwideband, fullband)")
	RootCmd.PersistentFlags().Int("opus-complexity", 5, "opus encoder complexity [0...10]")
	RootCmd.PersistentFlags().Int("chunk-frames", 50, "codec frames processed at once")

	viper.BindPFlag("log.verbose", RootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("codec.engine", RootCmd.PersistentFlags().Lookup("engine"))
	viper.BindPFlag("opus.application", RootCmd.PersistentFlags().Lookup("opus-application"))
	viper.BindPFlag("opus.max-bandwidth", RootCmd.PersistentFlags().Lookup("opus-max-bandwidth"))
	viper.BindPFlag("opus.complexity", RootCmd.PersistentFlags().Lookup("opus-complexity"))
	viper.BindPFlag("pipeline.chunk-frames", RootCmd.PersistentFlags().Lookup("chunk-frames"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("speechBridge") // name of config file (without extension)
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.speechBridge")
		}
	}

	viper.SetEnvPrefix("SPEECHBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// readConfig tries to read the config file. A missing config file is not
// an error.
func readConfig() {
	err := viper.ReadInConfig()
	if err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
		return
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return
	}
	fmt.Fprintf(os.Stderr, "Error parsing config file %v: %v\n",
		viper.ConfigFileUsed(), err)
	os.Exit(1)
}

// newLogger returns a production logger or, in verbose mode, a
// development logger.
func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error

	if viper.GetBool("log.verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		exit(err)
	}
	return logger
}

// exit prints the error to stderr and returns with exit code 1.
func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
