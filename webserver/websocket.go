package webserver

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/metrics"
	"github.com/dh1tw/speechBridge/session"
)

// webSocketHdlr streams encoded audio. Every binary message from the
// client carries little endian 16 bit PCM and is answered with a binary
// message carrying the packets of all complete codec frames. The text
// message "flush" encodes the remaining samples. Each connection uses its
// own encoder session.
func (web *WebServer) webSocketHdlr(w http.ResponseWriter, req *http.Request) {

	samplerate, err := intParam(req, "samplerate", 16000)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid samplerate"))
		return
	}
	bitrate, err := intParam(req, "bitrate", 0)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid bitrate"))
		return
	}
	dtx, err := boolParam(req, "dtx", false)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid dtx flag"))
		return
	}
	preprocessing, err := boolParam(req, "preprocessing", false)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid preprocessing flag"))
		return
	}

	log := web.logger.With(zap.String("remote", req.RemoteAddr))

	enc := session.NewEncoderSession(web.pipeline.Engine(), session.Logger(log))
	err = enc.Initialize(session.CodecConfig{
		SampleRateHz:        samplerate,
		NumChannels:         1,
		BitrateBps:          bitrate,
		EnableDTX:           dtx,
		EnablePreprocessing: preprocessing,
	})
	if err != nil {
		log.Warn("unable to initialize stream encoder", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - unable to initialize encoder"))
		return
	}
	defer enc.Release()

	stream, err := web.pipeline.NewStreamEncoder(enc)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to create stream encoder"))
		return
	}

	conn, err := web.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn("unable to open websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	log.Debug("websocket stream opened", zap.Int("samplerate", samplerate))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			break
		}

		var packets []byte

		switch msgType {
		case websocket.TextMessage:
			// "flush" encodes the incomplete frame, zero padded
			if string(data) != "flush" {
				continue
			}
			packets, err = stream.Flush()

		case websocket.BinaryMessage:
			pcm, perr := audio.BytesToInt16(data)
			if perr != nil {
				web.closeWs(conn, websocket.CloseUnsupportedData, perr.Error())
				return
			}
			if werr := stream.Write(pcm); werr != nil {
				web.closeWs(conn, websocket.CloseTryAgainLater, werr.Error())
				return
			}
			packets, err = stream.Drain()

		default:
			continue
		}

		if err != nil {
			web.closeWs(conn, websocket.CloseInternalServerErr, err.Error())
			return
		}
		if len(packets) == 0 {
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, packets); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}

	log.Debug("websocket stream closed")
}

func (web *WebServer) closeWs(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		web.logger.Debug("unable to send close message", zap.Error(err))
	}
}
