package webserver

import "github.com/prometheus/client_golang/prometheus/promhttp"

func (web *WebServer) routes() {
	web.router.HandleFunc("/api/v1.0/encoder", web.encoderHdlr).Methods("PUT", "DELETE")
	web.router.HandleFunc("/api/v1.0/encoder/bitrate", web.bitrateHdlr).Methods("PUT")
	web.router.HandleFunc("/api/v1.0/encoder/encode", web.encodeHdlr).Methods("POST")
	web.router.HandleFunc("/api/v1.0/decoder", web.decoderHdlr).Methods("PUT", "DELETE")
	web.router.HandleFunc("/api/v1.0/decoder/decode", web.decodeHdlr).Methods("POST")
	web.router.HandleFunc("/api/v1.0/decoder/stats", web.decoderStatsHdlr).Methods("GET")
	web.router.HandleFunc("/api/v1.0/files/encode", web.encodeFileHdlr).Methods("POST")
	web.router.HandleFunc("/api/v1.0/files/decode", web.decodeFileHdlr).Methods("POST")
	web.router.HandleFunc("/api/v1.0/ws/encode", web.webSocketHdlr)
	web.router.Handle("/metrics", promhttp.Handler())
}
