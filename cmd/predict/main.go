// Command predict loads the home price model and prints one JSON result.
//
//	predict <area> [model_path]
//
// Exit status is 0 on success and 1 on any failure. Diagnostics go to
// stderr (or the configured log file); stdout carries only the result.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/config"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/db"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/inference"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath := config.Locate()
	cfg, cfgErr := config.Load(configPath)

	logger, closeLog := logging.New(cfg.Log)
	defer closeLog()
	if cfgErr != nil {
		logger.Warn("ignoring unreadable config", zap.String("path", configPath), zap.Error(cfgErr))
	}

	bridge := inference.NewBridge(inference.NewResolver(cfg.Model), os.Stdout, logger)
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Warn("prediction log disabled", zap.String("path", cfg.Database.Path), zap.Error(err))
		} else {
			defer store.Close()
			bridge.Recorder = store
		}
	}
	return bridge.Run(args)
}
