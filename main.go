package main

import (
	"flag"
	"log"

	"github.com/TheSilvus/smeagol/internal/server"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if err := server.Run(cfg); err != nil {
		log.Fatal("server failed:", err)
	}
}
