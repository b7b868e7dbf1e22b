package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/mobee-ledger/pkg/app/deployer"
	"github.com/chainsafe/mobee-ledger/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := deployer.NewServer(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Deployment failed: %v\n", err)
		os.Exit(1)
	}
}
