// HTTP server logging fasthttp's messages and serving the sink metrics
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lixenwraith/log2what"
	"github.com/lixenwraith/log2what/compat"
	"github.com/lixenwraith/log2what/metrics"
)

func main() {
	registry := log2what.NewRegistry(log2what.WithInternalErrors(os.Stderr))
	defer registry.Close()

	builder := log2what.NewBuilder().
		Registry(registry).
		Module("http").
		Directory("./log/fasthttp").
		FileName("server").
		MaxFileSize(10 * log2what.MB).
		MaxGenerations(20).
		EnableConsole(true).
		Trigger(log2what.LevelWarn, 100, 10)
	logger, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(metrics.NewCollector().
		AddRegistry("files", registry).
		AddTriggerBuffer("http", builder.TriggerBuffer()))
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	adapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultLevel(log2what.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/metrics" {
				metricsHandler(ctx)
				return
			}
			logger.Debug("request", "method", string(ctx.Method()), "path", string(ctx.Path()))
			ctx.SetContentType("text/plain")
			fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
		},
		Logger:       adapter,
		Name:         "log2what-example",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("listening", "addr", ":8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Error("server stopped", err)
	}
}

// customLevelDetector maps known fasthttp messages before falling back to keyword detection
func customLevelDetector(msg string) (log2what.Level, bool) {
	if strings.Contains(msg, "connection cannot be served") {
		return log2what.LevelWarn, true
	}
	if strings.Contains(msg, "error when serving connection") {
		return log2what.LevelError, true
	}
	return compat.DetectLogLevel(msg)
}
