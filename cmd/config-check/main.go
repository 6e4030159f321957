package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/livetemp/pkg/config"
)

func main() {
	yamlFile := flag.String("yaml", "", "Path to YAML configuration file")
	flag.Parse()

	if *yamlFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Check")
	fmt.Println("===================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	provider := config.NewYAMLProvider(*yamlFile)
	cfg, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Configuration is valid")

	fmt.Println("\nSampler:")
	fmt.Printf("  interval:  %v\n", cfg.Sampler.Interval)
	fmt.Printf("  range:     %v to %v %s\n", cfg.Sampler.Min, cfg.Sampler.Max, cfg.Sampler.Unit)
	fmt.Printf("  precision: %d\n", cfg.Sampler.Precision)
	if cfg.Sampler.FlagsEnabled {
		fmt.Printf("  flags:     warmer at or above %v\n", cfg.Sampler.FlagThreshold)
	} else {
		fmt.Println("  flags:     disabled")
	}
	fmt.Printf("\nHistory capacity: %d\n", cfg.History.Capacity)
	fmt.Printf("REST server:      %s:%d", cfg.RESTServer.ListenAddr, cfg.RESTServer.HTTPPort)
	if cfg.RESTServer.TLSCertPath != "" {
		fmt.Print(" (TLS)")
	}
	fmt.Println()

	fmt.Println("\nStorage:")
	printStorage(cfg.Storage)
}

func printStorage(s config.StorageData) {
	none := true
	if s.SQLite != nil {
		none = false
		fmt.Printf("  sqlite:      %s (retention %v, prune %q)\n", s.SQLite.Path, s.SQLite.Retention, s.SQLite.PruneSchedule)
	}
	if s.TimescaleDB != nil {
		none = false
		fmt.Println("  timescaledb: configured")
	}
	if s.MQTT != nil {
		none = false
		fmt.Printf("  mqtt:        %s topic %q qos %d\n", s.MQTT.Broker, s.MQTT.Topic, s.MQTT.QoS)
	}
	if none {
		fmt.Println("  none (readings are kept in memory only)")
	}
}
