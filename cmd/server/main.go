package main

import (
	"github.com/definitelynotaspy/intel-service/internal/server"
	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
