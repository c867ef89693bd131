// Echo server logging gnet's engine messages through a trigger-buffered logger
package main

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/log2what"
	"github.com/lixenwraith/log2what/compat"
)

type echoServer struct {
	gnet.BuiltinEventEngine
	logger *log2what.Logger
}

func (es *echoServer) OnBoot(eng gnet.Engine) gnet.Action {
	es.logger.Info("echo server ready")
	return gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	es.logger.Debug("echo", "remote", c.RemoteAddr().String(), "bytes", len(buf))
	_, _ = c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := log2what.NewBuilder().
		Module("gnet").
		Directory("./log/gnet").
		FileName("echo").
		// Debug traffic reaches the file only around warnings and errors
		Trigger(log2what.LevelWarn, 200, 20).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	adapter, err := compat.NewBuilder().WithLogger(logger).BuildStructuredGnet()
	if err != nil {
		fmt.Fprintf(os.Stderr, "adapter: %v\n", err)
		os.Exit(1)
	}

	err = gnet.Run(
		&echoServer{logger: logger},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(adapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		logger.Error("gnet stopped", err)
	}
}
