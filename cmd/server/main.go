package main

import (
	"github.com/madewith/chatbot/backend/internal/server"
	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/logger/console"
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
