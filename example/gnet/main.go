// FILE: example/gnet/main.go
package main

import (
	"github.com/panjf2000/gnet/v2"

	log "github.com/lixenwraith/fanlog"
	"github.com/lixenwraith/fanlog/compat"
)

type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := log.NewBuilder().
		Name("gnet").
		LevelString("debug").
		Format("json").
		Async(4096, log.DiscardLogMsg).
		RotatingFile("./logs/gnet.log", 10240, 5).
		Build()
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	gnetAdapter := compat.NewGnetAdapter(logger)

	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		logger.Errorf("gnet stopped: %v", err)
	}
}
