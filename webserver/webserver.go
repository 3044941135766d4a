// Package webserver exposes a Bridge through a small REST API and a
// websocket endpoint for streaming encode.
package webserver

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/bridge"
	"github.com/dh1tw/speechBridge/pipeline"
)

// WebServer holds the http router and the bridge it serves.
type WebServer struct {
	url        string
	port       int
	router     *mux.Router
	apiVersion string
	apiMatch   *regexp.Regexp
	bridge     *bridge.Bridge
	pipeline   *pipeline.Pipeline
	upgrader   websocket.Upgrader
	options    Options
	logger     *zap.Logger
}

// NewWebServer is the constructor method for a WebServer serving b.
func NewWebServer(url string, port int, b *bridge.Bridge, opts ...Option) (*WebServer, error) {

	web := &WebServer{
		url:        url,
		port:       port,
		router:     mux.NewRouter().StrictSlash(true),
		apiVersion: "1.0",
		apiMatch:   regexp.MustCompile(`api/v\d+\.\d+`),
		bridge:     b,
		options: Options{
			Logger:  zap.NewNop(),
			Backlog: pipeline.DefaultBacklog,
		},
	}

	for _, option := range opts {
		option(&web.options)
	}

	web.logger = web.options.Logger.With(zap.String("component", "webserver"))

	p, err := pipeline.New(b.Engine(),
		pipeline.Logger(web.logger),
		pipeline.Backlog(web.options.Backlog))
	if err != nil {
		return nil, err
	}
	web.pipeline = p

	web.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     web.checkOrigin,
	}

	web.routes()

	return web, nil
}

// Handler returns the http.Handler of the WebServer including its
// middleware.
func (web *WebServer) Handler() http.Handler {
	return web.apiRedirectRouter(web.router)
}

// Start the webserver. This function blocks until the server fails.
func (web *WebServer) Start() error {
	serverURL := fmt.Sprintf("%s:%d", web.url, web.port)
	web.logger.Info("webserver listening", zap.String("address", serverURL))
	return http.ListenAndServe(serverURL, web.Handler())
}

// checkOrigin accepts websocket requests without an Origin header, from
// the same host and from the configured allowed origins.
func (web *WebServer) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, req.Host) {
		return true
	}

	for _, allowed := range web.options.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}

	web.logger.Warn("rejected websocket origin", zap.String("origin", origin))
	return false
}
