package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/livetemp/internal/app"
	"github.com/chrissnell/livetemp/internal/constants"
	"github.com/chrissnell/livetemp/internal/log"
	"github.com/chrissnell/livetemp/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "", "Path to YAML configuration file (built-in defaults when empty)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("livetemp %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	log.Debugw("configuration loaded",
		"interval", cfgData.Sampler.Interval,
		"min", cfgData.Sampler.Min,
		"max", cfgData.Sampler.Max,
		"capacity", cfgData.History.Capacity,
		"http_port", cfgData.RESTServer.HTTPPort)

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	var provider config.ConfigProvider
	if cfgFile == "" {
		log.Info("no -config given; using built-in defaults")
		provider = config.NewDefaultProvider()
	} else {
		filename, _ := filepath.Abs(cfgFile)
		provider = config.NewYAMLProvider(filename)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Run with -h for help: %w", err)
	}

	return cfgData, nil
}
