package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into a defaulted, validated ConfigData
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config, err := yamlConfig.toConfigData()
	if err != nil {
		return nil, err
	}

	ApplyDefaults(config)
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetRESTServerConfig returns the REST server configuration
func (y *YAMLProvider) GetRESTServerConfig() (*RESTServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.RESTServer, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

func (c ConfigYAML) toConfigData() (*ConfigData, error) {
	config := &ConfigData{
		Sampler: SamplerData{
			Min:          c.Sampler.Min,
			Max:          c.Sampler.Max,
			Precision:    DefaultPrecision,
			FlagsEnabled: true,
			Unit:         c.Sampler.Unit,
		},
		History: HistoryData{
			Capacity: c.History.Capacity,
		},
		Dashboard: DashboardData{
			PageTitle:   c.Dashboard.PageTitle,
			Heading:     c.Dashboard.Heading,
			Description: c.Dashboard.Description,
		},
		RESTServer: RESTServerData{
			ListenAddr:  c.RESTServer.ListenAddr,
			HTTPPort:    c.RESTServer.HTTPPort,
			TLSCertPath: c.RESTServer.TLSCertPath,
			TLSKeyPath:  c.RESTServer.TLSKeyPath,
		},
	}

	if c.Sampler.Interval != "" {
		d, err := time.ParseDuration(c.Sampler.Interval)
		if err != nil {
			return nil, fmt.Errorf("%w: sampler interval: %v", ErrInvalidConfig, err)
		}
		config.Sampler.Interval = d
	}
	if c.Sampler.Precision != nil {
		config.Sampler.Precision = *c.Sampler.Precision
	}
	if c.Sampler.Flags != nil {
		config.Sampler.FlagsEnabled = *c.Sampler.Flags
	}

	// The threshold defaults to the middle of the range, which is only known once
	// min and max have been defaulted
	if c.Sampler.FlagThreshold != nil {
		config.Sampler.FlagThreshold = *c.Sampler.FlagThreshold
	} else {
		lo, hi := config.Sampler.Min, config.Sampler.Max
		if lo == 0 && hi == 0 {
			lo, hi = DefaultMin, DefaultMax
		}
		config.Sampler.FlagThreshold = (lo + hi) / 2
	}

	for _, l := range c.Dashboard.Links {
		config.Dashboard.Links = append(config.Dashboard.Links, LinkData{
			Title: l.Title,
			URL:   l.URL,
		})
	}

	if c.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path:          c.Storage.SQLite.Path,
			PruneSchedule: c.Storage.SQLite.PruneSchedule,
		}
		if c.Storage.SQLite.Retention != "" {
			d, err := time.ParseDuration(c.Storage.SQLite.Retention)
			if err != nil {
				return nil, fmt.Errorf("%w: storage sqlite retention: %v", ErrInvalidConfig, err)
			}
			config.Storage.SQLite.Retention = d
		}
	}
	if c.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: c.Storage.TimescaleDB.ConnectionString,
		}
	}
	if c.Storage.MQTT != nil {
		config.Storage.MQTT = &MQTTData{
			Broker:   c.Storage.MQTT.Broker,
			Topic:    c.Storage.MQTT.Topic,
			ClientID: c.Storage.MQTT.ClientID,
			Username: c.Storage.MQTT.Username,
			Password: c.Storage.MQTT.Password,
			QoS:      c.Storage.MQTT.QoS,
		}
	}

	return config, nil
}

// YAML-specific structs with proper YAML tags for parsing the config file
type ConfigYAML struct {
	Sampler    SamplerYAML    `yaml:"sampler,omitempty"`
	History    HistoryYAML    `yaml:"history,omitempty"`
	Dashboard  DashboardYAML  `yaml:"dashboard,omitempty"`
	RESTServer RESTServerYAML `yaml:"rest,omitempty"`
	Storage    StorageYAML    `yaml:"storage,omitempty"`
}

type SamplerYAML struct {
	Interval      string   `yaml:"interval,omitempty"`
	Min           float64  `yaml:"min,omitempty"`
	Max           float64  `yaml:"max,omitempty"`
	Precision     *int     `yaml:"precision,omitempty"`
	Flags         *bool    `yaml:"flags,omitempty"`
	FlagThreshold *float64 `yaml:"flag-threshold,omitempty"`
	Unit          string   `yaml:"unit,omitempty"`
}

type HistoryYAML struct {
	Capacity int `yaml:"capacity,omitempty"`
}

type DashboardYAML struct {
	PageTitle   string     `yaml:"page-title,omitempty"`
	Heading     string     `yaml:"heading,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Links       []LinkYAML `yaml:"links,omitempty"`
}

type LinkYAML struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

type RESTServerYAML struct {
	ListenAddr  string `yaml:"listen-addr,omitempty"`
	HTTPPort    int    `yaml:"http-port,omitempty"`
	TLSCertPath string `yaml:"tls-cert-path,omitempty"`
	TLSKeyPath  string `yaml:"tls-key-path,omitempty"`
}

type StorageYAML struct {
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	MQTT        *MQTTYAML        `yaml:"mqtt,omitempty"`
}

type SQLiteYAML struct {
	Path          string `yaml:"path"`
	Retention     string `yaml:"retention,omitempty"`
	PruneSchedule string `yaml:"prune-schedule,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type MQTTYAML struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic,omitempty"`
	ClientID string `yaml:"client-id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	QoS      byte   `yaml:"qos,omitempty"`
}
