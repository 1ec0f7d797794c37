package main

import (
	"fmt"
	"os"

	"github.com/elder-platform/elder/components/core/internal/bootstrap"
)

// @title			Elder Core API
// @version		v0.1.0
// @description	Inventory, dependency-graph, and on-call directory API.
// @BasePath		/
func main() {
	cfg := bootstrap.LoadConfig()

	service, err := bootstrap.NewService(cfg, bootstrap.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize elder-core: %v\n", err)
		os.Exit(1)
	}

	if err := service.Run(); err != nil {
		service.Logger.Errorf("elder-core exited with error: %v", err)
		_ = service.Logger.Sync()

		os.Exit(1)
	}
}
