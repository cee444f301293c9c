// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	log "github.com/lixenwraith/fanlog"
	"github.com/lixenwraith/fanlog/compat"
)

func main() {
	cfg := log.DefaultConfig()
	cfg.Name = "http"
	cfg.FileMode = log.FileModeDaily
	cfg.File = "./logs/fasthttp.log"
	cfg.Async = true
	cfg.QueueSize = 2048

	logger, err := log.New(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	fasthttpAdapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultLevel(log.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	server := &fasthttp.Server{
		Handler:           requestHandler,
		Logger:            fasthttpAdapter,
		Name:              "fanlog-demo",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	logger.Notice("starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customLevelDetector(msg string) log.Level {
	if strings.Contains(msg, "connection cannot be served") {
		return log.LevelWarn
	}
	if strings.Contains(msg, "error when serving connection") {
		return log.LevelError
	}
	return compat.DetectLogLevel(msg)
}
