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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/bridge"
	"github.com/dh1tw/speechBridge/webserver"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "expose the codec through a REST and websocket API",
	Long: `expose the codec through a REST and websocket API

The encoder and decoder sessions are controlled through /api/v1.0/encoder
and /api/v1.0/decoder. Audio is streamed through the websocket at
/api/v1.0/ws/encode. Prometheus metrics are available at /metrics.`,
	Args: cobra.NoArgs,
	Run:  serve,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("http-host", "w", "127.0.0.1", "Host (use '0.0.0.0' to listen on all network adapters)")
	serveCmd.Flags().IntP("http-port", "k", 9090, "Port of the REST API")
	serveCmd.Flags().StringSlice("allowed-origins", []string{}, "origins allowed to open the websocket besides the server's own (e.g. https://example.com, '*' for any)")
	addLossFlags(serveCmd)
}

func serve(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("http.host", cmd.Flags().Lookup("http-host"))
	viper.BindPFlag("http.port", cmd.Flags().Lookup("http-port"))
	viper.BindPFlag("http.allowed-origins", cmd.Flags().Lookup("allowed-origins"))
	bindLossFlags(cmd)

	if err := checkCodecParameterValues(); err != nil {
		exit(err)
	}

	if err := checkLossParameterValues(); err != nil {
		exit(err)
	}

	if err := checkHTTPParameterValues(); err != nil {
		exit(err)
	}

	logger := newLogger()
	defer logger.Sync()

	engine, err := newEngine()
	if err != nil {
		exit(err)
	}

	b, err := bridge.New(engine,
		bridge.Logger(logger),
		bridge.DefaultLoss(lossSpec()),
		bridge.ChunkFrames(viper.GetInt("pipeline.chunk-frames")))
	if err != nil {
		exit(err)
	}

	web, err := webserver.NewWebServer(viper.GetString("http.host"),
		viper.GetInt("http.port"), b,
		webserver.Logger(logger),
		webserver.AllowedOrigins(viper.GetStringSlice("http.allowed-origins")...))
	if err != nil {
		exit(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- web.Start()
	}()

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("webserver stopped", zap.Error(err))
		b.ReleaseEncoder()
		b.ReleaseDecoder()
		logger.Sync()
		exit(err)
	case sig := <-osSignals:
		logger.Info("shutting down", zap.Stringer("signal", sig))
		b.ReleaseEncoder()
		b.ReleaseDecoder()
	}
}
