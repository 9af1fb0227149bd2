package main

import (
	"flag"

	"petboard/backend/server"
	"petboard/config"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

func main() {
	log.SetHandler(text.Default)
	cfg := config.Load()
	cfg.ApplyLogLevel()
	flag.Parse()

	log.Info("Hello!")
	if err := server.StartService(cfg); err != nil {
		log.Fatalf("Service stopped: %v", err)
	}
	log.Info("Bye!")
}
