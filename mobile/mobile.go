// Package mobile is the gomobile binding of the bridge. gomobile cannot
// bind []int16, therefore PCM crosses this boundary as little endian
// 16 bit samples in a []byte.
package mobile

import (
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audiocodec"
	_ "github.com/dh1tw/speechBridge/audiocodec/mock"
	_ "github.com/dh1tw/speechBridge/audiocodec/opus"
	"github.com/dh1tw/speechBridge/bridge"
	"github.com/dh1tw/speechBridge/loss"
)

// IsLibraryLoaded reports if at least one codec engine is available.
func IsLibraryLoaded() bool {
	return len(audiocodec.Engines()) > 0
}

// Bridge is a handle on an encoder and a decoder session.
type Bridge struct {
	b      *bridge.Bridge
	logger *zap.Logger
}

// NewBridge returns a Bridge for the codec engine with the given name
// ("opus" or "mock").
func NewBridge(engineName string) (*Bridge, error) {
	e, err := audiocodec.Lookup(engineName)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	b, err := bridge.New(e, bridge.Logger(logger))
	if err != nil {
		return nil, err
	}

	return &Bridge{b: b, logger: logger}, nil
}

func (m *Bridge) InitializeEncoder(sampleRateHz, numChannels, bitrate int, enableDtx bool, modelPath string) bool {
	return m.b.InitializeEncoder(sampleRateHz, numChannels, bitrate, enableDtx, modelPath)
}

func (m *Bridge) ReleaseEncoder() {
	m.b.ReleaseEncoder()
}

func (m *Bridge) SetBitrate(bitrate int) bool {
	return m.b.SetBitrate(bitrate)
}

// EncodeBuffer encodes little endian 16 bit PCM. It returns nil on
// failure.
func (m *Bridge) EncodeBuffer(pcm []byte, sampleRateHz int, enablePreprocessing bool) []byte {
	samples, err := audio.BytesToInt16(pcm)
	if err != nil {
		m.logger.Warn("EncodeBuffer failed", zap.Int("bytes", len(pcm)), zap.Error(err))
		return nil
	}
	return m.b.EncodeBuffer(samples, sampleRateHz, enablePreprocessing)
}

func (m *Bridge) InitializeDecoder(sampleRateHz, numChannels int, modelPath string) bool {
	return m.b.InitializeDecoder(sampleRateHz, numChannels, modelPath)
}

func (m *Bridge) ReleaseDecoder() {
	m.b.ReleaseDecoder()
}

// DecodeBuffer decodes a packet stream into little endian 16 bit PCM. It
// returns nil on failure.
func (m *Bridge) DecodeBuffer(packets []byte, bitrate int) []byte {
	pcm := m.b.DecodeBuffer(packets, bitrate)
	if pcm == nil {
		return nil
	}
	return audio.Int16ToBytes(pcm)
}

// DecodeBufferWithLoss decodes a packet stream under a simulated lossy
// channel with the given loss rate [0...1] and average burst length.
func (m *Bridge) DecodeBufferWithLoss(packets []byte, bitrate int, lossRate, burstLength float64, seed int64) []byte {
	spec := loss.Spec{
		Params: loss.Params{
			PacketLossRate:     lossRate,
			AverageBurstLength: burstLength,
		},
		Seed: uint64(seed),
	}
	pcm := m.b.DecodeBufferWithLoss(packets, bitrate, spec)
	if pcm == nil {
		return nil
	}
	return audio.Int16ToBytes(pcm)
}

func (m *Bridge) EncodeFile(inputPath, outputPath string, bitrate int, enablePreprocessing, enableDtx bool, modelPath string) bool {
	return m.b.EncodeFile(inputPath, outputPath, bitrate, enablePreprocessing, enableDtx, modelPath)
}

func (m *Bridge) DecodeFile(inputPath, outputPath string, sampleRateHz, bitrate int, modelPath string) bool {
	return m.b.DecodeFile(inputPath, outputPath, sampleRateHz, bitrate, modelPath)
}
