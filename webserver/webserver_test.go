package webserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audiocodec/mock"
	"github.com/dh1tw/speechBridge/bridge"
)

func newServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	b, err := bridge.New(mock.Engine{})
	if err != nil {
		t.Fatal(err)
	}
	web, err := NewWebServer("localhost", 0, b, opts...)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(web.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res.StatusCode, data
}

func constPCM(n int, v int16) []byte {
	s := make([]int16, n)
	for i := range s {
		s[i] = v
	}
	return audio.Int16ToBytes(s)
}

func TestEncodeDecode(t *testing.T) {
	srv := newServer(t)
	api := srv.URL + "/api/v1.0"

	code, _ := do(t, "PUT", api+"/encoder", "application/json", []byte(`{"samplerate":16000,"bitrate":6000}`))
	if code != http.StatusOK {
		t.Fatalf("initialize encoder: %d", code)
	}
	code, _ = do(t, "PUT", api+"/decoder", "application/json", []byte(`{"samplerate":16000}`))
	if code != http.StatusOK {
		t.Fatalf("initialize decoder: %d", code)
	}

	code, packets := do(t, "POST", api+"/encoder/encode?samplerate=16000", "application/octet-stream", constPCM(640, 321))
	if code != http.StatusOK {
		t.Fatalf("encode: %d", code)
	}
	if len(packets) != 2*15 {
		t.Fatalf("expected 30 bytes, got %d", len(packets))
	}

	code, body := do(t, "POST", api+"/decoder/decode?bitrate=6000&lost=1", "application/octet-stream", packets)
	if code != http.StatusOK {
		t.Fatalf("decode: %d %s", code, body)
	}
	pcm, err := audio.BytesToInt16(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) != 640 || pcm[0] != 321 || pcm[320] != 160 {
		t.Fatalf("unexpected pcm (%d samples)", len(pcm))
	}

	code, body = do(t, "GET", api+"/decoder/stats", "", nil)
	if code != http.StatusOK || !strings.Contains(string(body), `"lost":1`) {
		t.Fatalf("stats: %d %s", code, body)
	}

	code, _ = do(t, "PUT", api+"/encoder/bitrate", "application/json", []byte(`{"bitrate":9200}`))
	if code != http.StatusOK {
		t.Fatalf("set bitrate: %d", code)
	}
	code, _ = do(t, "PUT", api+"/encoder/bitrate", "application/json", []byte(`{"bitrate":12345}`))
	if code != http.StatusBadRequest {
		t.Fatalf("unsupported bitrate: expected 400, got %d", code)
	}
	_, packets = do(t, "POST", api+"/encoder/encode?samplerate=16000", "", constPCM(320, 1))
	if len(packets) != 23 {
		t.Fatalf("expected 23 bytes after bitrate change, got %d", len(packets))
	}

	code, _ = do(t, "DELETE", api+"/encoder", "", nil)
	if code != http.StatusOK {
		t.Fatalf("release encoder: %d", code)
	}
	code, _ = do(t, "POST", api+"/encoder/encode?samplerate=16000", "", constPCM(320, 1))
	if code != http.StatusInternalServerError {
		t.Fatalf("encode after release: expected 500, got %d", code)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newServer(t)
	api := srv.URL + "/api/v1.0"

	data := []struct {
		method string
		url    string
		body   string
		code   int
	}{
		{"PUT", "/encoder", `{samplerate`, http.StatusBadRequest},
		{"PUT", "/encoder", `{}`, http.StatusBadRequest},
		{"PUT", "/encoder", `{"samplerate":44100}`, http.StatusInternalServerError},
		{"PUT", "/encoder/bitrate", `{}`, http.StatusBadRequest},
		{"PUT", "/encoder/bitrate", `{"bitrate":12345}`, http.StatusBadRequest},
		{"PUT", "/encoder/bitrate", `{"bitrate":9200}`, http.StatusConflict},
		{"POST", "/encoder/encode", "", http.StatusBadRequest},
		{"POST", "/encoder/encode?samplerate=16000", "abc", http.StatusBadRequest},
		{"POST", "/decoder/decode", "", http.StatusBadRequest},
		{"POST", "/decoder/decode?bitrate=3200&loss_rate=7", "", http.StatusBadRequest},
		{"POST", "/files/encode", `{"input":""}`, http.StatusBadRequest},
		{"POST", "/files/decode", `{"input":"a","output":"b"}`, http.StatusBadRequest},
		{"GET", "/encoder", "", http.StatusMethodNotAllowed},
	}

	for _, d := range data {
		code, body := do(t, d.method, api+d.url, "", []byte(d.body))
		if code != d.code {
			t.Errorf("%s %s: expected %d, got %d (%s)", d.method, d.url, d.code, code, body)
		}
	}
}

func TestAPIRedirect(t *testing.T) {
	srv := newServer(t)

	code, _ := do(t, "PUT", srv.URL+"/api/decoder", "application/json", []byte(`{"samplerate":8000}`))
	if code != http.StatusOK {
		t.Fatalf("expected unversioned api call to succeed, got %d", code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newServer(t)
	code, body := do(t, "GET", srv.URL+"/metrics", "", nil)
	if code != http.StatusOK || !strings.Contains(string(body), "speechbridge_") {
		t.Fatalf("metrics: %d", code)
	}
}

func TestWebSocketStream(t *testing.T) {
	srv := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1.0/ws/encode?samplerate=8000&bitrate=3200"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// 1.5 frames
	if err := conn.WriteMessage(websocket.BinaryMessage, constPCM(240, 10)); err != nil {
		t.Fatal(err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if len(msg) != 8 || msg[0] != mock.Marker {
		t.Fatalf("expected one packet, got %d bytes", len(msg))
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("flush")); err != nil {
		t.Fatal(err)
	}
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if len(msg) != 8 {
		t.Fatalf("expected flushed packet, got %d bytes", len(msg))
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func TestWebSocketInvalidConfig(t *testing.T) {
	srv := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1.0/ws/encode?samplerate=44100"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if res == nil || res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %v", res)
	}
}

func TestWebSocketOrigin(t *testing.T) {
	data := []struct {
		name    string
		opts    []Option
		origin  string
		allowed bool
	}{
		{"no origin", nil, "", true},
		{"same origin", nil, "self", true},
		{"foreign origin", nil, "http://evil.example.com", false},
		{"allowed origin", []Option{AllowedOrigins("https://app.example.com")}, "https://app.example.com", true},
		{"other origin", []Option{AllowedOrigins("https://app.example.com")}, "https://evil.example.com", false},
		{"wildcard", []Option{AllowedOrigins("*")}, "http://evil.example.com", true},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			srv := newServer(t, d.opts...)
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1.0/ws/encode?samplerate=8000&bitrate=3200"

			header := http.Header{}
			switch d.origin {
			case "":
			case "self":
				header.Set("Origin", srv.URL)
			default:
				header.Set("Origin", d.origin)
			}

			conn, res, err := websocket.DefaultDialer.Dial(url, header)
			if d.allowed {
				if err != nil {
					t.Fatalf("expected handshake to succeed, got %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("expected handshake to fail")
			}
			if res == nil || res.StatusCode != http.StatusForbidden {
				t.Fatalf("expected 403 response, got %v", res)
			}
		})
	}
}
