package handler

import (
	"net/http"
	"sync"

	"resort/config"
	"resort/di"
	transportHTTP "resort/transport/http"
	"resort/shared/logger"
)

var (
	server *transportHTTP.HTTP
	once   sync.Once
)

// Handler is the serverless entrypoint. The server graph is built once per instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		cfg := config.Get()

		logger.InitLogger()

		logger.Configure(cfg)

		server = di.InitializeService()
	})

	server.ServeHTTP(w, r)
}
