package webserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/pipeline"
	"github.com/dh1tw/speechBridge/utils"
)

// maxBodySize limits the size of audio and packet uploads.
const maxBodySize = 64 << 20

func (web *WebServer) encoderHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "PUT":
		var cfg EncoderConfig
		dec := json.NewDecoder(req.Body)
		if err := dec.Decode(&cfg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid JSON"))
			return
		}
		if cfg.SampleRate == nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid Request"))
			return
		}
		if !web.bridge.InitializeEncoder(*cfg.SampleRate, cfg.Channels, cfg.Bitrate, cfg.DTX, cfg.ModelPath) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to initialize encoder"))
			return
		}

	case "DELETE":
		web.bridge.ReleaseEncoder()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) bitrateHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	var msg Bitrate
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(&msg); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid JSON"))
		return
	}
	if msg.Bitrate == nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid Request"))
		return
	}

	if !utils.IntInSlice(*msg.Bitrate, web.bridge.Engine().SupportedBitrates()) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - unsupported bitrate"))
		return
	}

	if !web.bridge.SetBitrate(*msg.Bitrate) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("409 - encoder not initialized"))
		return
	}
}

func (web *WebServer) encodeHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	samplerate, err := intParam(req, "samplerate", 0)
	if err != nil || samplerate <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid samplerate"))
		return
	}
	preprocessing, err := boolParam(req, "preprocessing", false)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid preprocessing flag"))
		return
	}

	pcm, ok := web.readPCM(w, req)
	if !ok {
		return
	}

	packets := web.bridge.EncodeBuffer(pcm, samplerate, preprocessing)
	if packets == nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to encode audio"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(packets)
}

func (web *WebServer) decoderHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "PUT":
		var cfg DecoderConfig
		dec := json.NewDecoder(req.Body)
		if err := dec.Decode(&cfg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid JSON"))
			return
		}
		if cfg.SampleRate == nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid Request"))
			return
		}
		if !web.bridge.InitializeDecoder(*cfg.SampleRate, cfg.Channels, cfg.ModelPath) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to initialize decoder"))
			return
		}

	case "DELETE":
		web.bridge.ReleaseDecoder()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) decodeHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	bitrate, err := intParam(req, "bitrate", 0)
	if err != nil || bitrate <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid bitrate"))
		return
	}

	spec, custom, err := lossParams(req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf("400 - %v", err)))
		return
	}

	stream, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - unable to read body"))
		return
	}

	var pcm []int16
	if custom {
		pcm = web.bridge.DecodeBufferWithLoss(stream, bitrate, spec)
	} else {
		pcm = web.bridge.DecodeBuffer(stream, bitrate)
	}
	if pcm == nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to decode packets"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(audio.Int16ToBytes(pcm))
}

func (web *WebServer) decoderStatsHdlr(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	st := web.bridge.DecoderStats()
	msg := DecoderStats{
		Delivered:  st.Delivered,
		Lost:       st.Lost,
		Duplicated: st.Duplicated,
		Frames:     st.Frames,
	}
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		web.logger.Warn("unable to encode DecoderStats msg", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to encode DecoderStats msg"))
	}
}

func (web *WebServer) encodeFileHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	var r pipeline.FileEncodeRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid JSON"))
		return
	}
	if r.Input == "" || r.Output == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid Request"))
		return
	}

	if !web.bridge.EncodeFile(r.Input, r.Output, r.Bitrate, r.Preprocessing, r.DTX, r.ModelPath) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("500 - unable to encode %s", r.Input)))
	}
}

func (web *WebServer) decodeFileHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	var r pipeline.FileDecodeRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid JSON"))
		return
	}
	if r.Input == "" || r.Output == "" || r.SampleRateHz <= 0 || r.Bitrate <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - invalid Request"))
		return
	}

	if !web.bridge.DecodeFile(r.Input, r.Output, r.SampleRateHz, r.Bitrate, r.ModelPath) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("500 - unable to decode %s", r.Input)))
	}
}

// readPCM reads a body of little endian 16 bit samples.
func (web *WebServer) readPCM(w http.ResponseWriter, req *http.Request) ([]int16, bool) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - unable to read body"))
		return nil, false
	}

	pcm, err := audio.BytesToInt16(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("400 - body must contain 16 bit samples"))
		return nil, false
	}
	return pcm, true
}

func intParam(req *http.Request, name string, def int) (int, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func boolParam(req *http.Request, name string, def bool) (bool, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func intListParam(req *http.Request, name string) ([]int, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	var res []int
	for _, s := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		res = append(res, i)
	}
	return res, nil
}

// lossParams parses the loss simulation from the query. custom is false
// if the query does not contain any loss parameter.
func lossParams(req *http.Request) (spec loss.Spec, custom bool, err error) {
	q := req.URL.Query()
	for _, k := range []string{"loss_rate", "burst_length", "seed", "lost", "duplicated"} {
		if q.Get(k) != "" {
			custom = true
		}
	}
	if !custom {
		return loss.NoLoss(), false, nil
	}

	spec = loss.NoLoss()

	if v := q.Get("loss_rate"); v != "" {
		if spec.PacketLossRate, err = strconv.ParseFloat(v, 64); err != nil {
			return spec, true, fmt.Errorf("invalid loss_rate")
		}
	}
	if v := q.Get("burst_length"); v != "" {
		if spec.AverageBurstLength, err = strconv.ParseFloat(v, 64); err != nil {
			return spec, true, fmt.Errorf("invalid burst_length")
		}
	}
	if v := q.Get("seed"); v != "" {
		if spec.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return spec, true, fmt.Errorf("invalid seed")
		}
	}

	lost, err := intListParam(req, "lost")
	if err != nil {
		return spec, true, fmt.Errorf("invalid lost list")
	}
	dup, err := intListParam(req, "duplicated")
	if err != nil {
		return spec, true, fmt.Errorf("invalid duplicated list")
	}
	spec.Pattern = loss.NewPattern(lost, dup)

	if spec.Pattern.IsEmpty() {
		if err := spec.Validate(); err != nil {
			return spec, true, err
		}
	}

	return spec, true, nil
}
