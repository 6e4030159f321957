package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied and validated
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStorageConfig() (*StorageData, error)
	GetRESTServerConfig() (*RESTServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Sampler    SamplerData    `json:"sampler"`
	History    HistoryData    `json:"history"`
	Dashboard  DashboardData  `json:"dashboard"`
	RESTServer RESTServerData `json:"rest"`
	Storage    StorageData    `json:"storage,omitempty"`
}

// SamplerData controls how simulated readings are produced
type SamplerData struct {
	Interval      time.Duration `json:"interval"`
	Min           float64       `json:"min"`
	Max           float64       `json:"max"`
	Precision     int           `json:"precision"`
	FlagsEnabled  bool          `json:"flags"`
	FlagThreshold float64       `json:"flag_threshold"`
	Unit          string        `json:"unit"`
}

// HistoryData sizes the rolling reading buffer
type HistoryData struct {
	Capacity int `json:"capacity"`
}

// DashboardData holds the text shown on the dashboard page
type DashboardData struct {
	PageTitle   string     `json:"page_title"`
	Heading     string     `json:"heading"`
	Description string     `json:"description"`
	Links       []LinkData `json:"links,omitempty"`
}

// LinkData is one entry in the sidebar's quick links
type LinkData struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RESTServerData configures the dashboard HTTP server
type RESTServerData struct {
	ListenAddr  string `json:"listen_addr"`
	HTTPPort    int    `json:"http_port"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// StorageData holds the configuration for the optional storage backends.  A nil
// backend is disabled.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	MQTT        *MQTTData        `json:"mqtt,omitempty"`
}

type SQLiteData struct {
	Path          string        `json:"path"`
	Retention     time.Duration `json:"retention"`
	PruneSchedule string        `json:"prune_schedule"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type MQTTData struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	QoS      byte   `json:"qos"`
}

// Defaults for every tunable
const (
	DefaultInterval      = 2 * time.Second
	DefaultMin           = 69.0
	DefaultMax           = 99.0
	DefaultPrecision     = 3
	DefaultUnit          = "°F"
	DefaultCapacity      = 10
	DefaultListenAddr    = "0.0.0.0"
	DefaultHTTPPort      = 8080
	DefaultRetention     = 24 * time.Hour
	DefaultPruneSchedule = "@every 1h"
	DefaultMQTTTopic     = "livetemp/readings"
	DefaultMQTTClientID  = "livetemp"
)

// DefaultConfig returns the configuration used when no file is supplied
func DefaultConfig() *ConfigData {
	return &ConfigData{
		Sampler: SamplerData{
			Interval:      DefaultInterval,
			Min:           DefaultMin,
			Max:           DefaultMax,
			Precision:     DefaultPrecision,
			FlagsEnabled:  true,
			FlagThreshold: (DefaultMin + DefaultMax) / 2,
			Unit:          DefaultUnit,
		},
		History: HistoryData{
			Capacity: DefaultCapacity,
		},
		Dashboard: DashboardData{
			PageTitle:   "Live Data",
			Heading:     "Southern Florida Explorer",
			Description: "A demonstration of real-time temperature readings in Florida.",
		},
		RESTServer: RESTServerData{
			ListenAddr: DefaultListenAddr,
			HTTPPort:   DefaultHTTPPort,
		},
	}
}

// ApplyDefaults fills zero-valued fields that have a sensible default.  Fields
// where zero is meaningful (precision, flags) are resolved by the provider.
func ApplyDefaults(c *ConfigData) {
	d := DefaultConfig()

	if c.Sampler.Interval == 0 {
		c.Sampler.Interval = d.Sampler.Interval
	}
	if c.Sampler.Min == 0 && c.Sampler.Max == 0 {
		c.Sampler.Min = d.Sampler.Min
		c.Sampler.Max = d.Sampler.Max
	}
	if c.Sampler.Unit == "" {
		c.Sampler.Unit = d.Sampler.Unit
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = d.History.Capacity
	}
	if c.Dashboard.PageTitle == "" {
		c.Dashboard.PageTitle = d.Dashboard.PageTitle
	}
	if c.Dashboard.Heading == "" {
		c.Dashboard.Heading = d.Dashboard.Heading
	}
	if c.Dashboard.Description == "" {
		c.Dashboard.Description = d.Dashboard.Description
	}
	if c.RESTServer.ListenAddr == "" {
		c.RESTServer.ListenAddr = d.RESTServer.ListenAddr
	}
	if c.RESTServer.HTTPPort == 0 {
		c.RESTServer.HTTPPort = d.RESTServer.HTTPPort
	}

	if s := c.Storage.SQLite; s != nil {
		if s.Retention == 0 {
			s.Retention = DefaultRetention
		}
		if s.PruneSchedule == "" {
			s.PruneSchedule = DefaultPruneSchedule
		}
	}
	if m := c.Storage.MQTT; m != nil {
		if m.Topic == "" {
			m.Topic = DefaultMQTTTopic
		}
		if m.ClientID == "" {
			m.ClientID = DefaultMQTTClientID
		}
	}
}

// Validate checks a defaulted configuration for values the application can't run with
func Validate(c *ConfigData) error {
	s := c.Sampler

	if s.Interval <= 0 {
		return fmt.Errorf("%w: sampler interval must be positive, got %v", ErrInvalidConfig, s.Interval)
	}
	if s.Min > s.Max {
		return fmt.Errorf("%w: sampler min (%v) is greater than max (%v)", ErrInvalidConfig, s.Min, s.Max)
	}
	if s.Precision < 0 || s.Precision > 10 {
		return fmt.Errorf("%w: sampler precision must be between 0 and 10, got %d", ErrInvalidConfig, s.Precision)
	}
	if s.FlagsEnabled && (s.FlagThreshold < s.Min || s.FlagThreshold > s.Max) {
		return fmt.Errorf("%w: flag threshold %v is outside [%v, %v]", ErrInvalidConfig, s.FlagThreshold, s.Min, s.Max)
	}
	if c.History.Capacity < 1 {
		return fmt.Errorf("%w: history capacity must be at least 1, got %d", ErrInvalidConfig, c.History.Capacity)
	}
	if c.RESTServer.HTTPPort < 1 || c.RESTServer.HTTPPort > 65535 {
		return fmt.Errorf("%w: rest http-port %d is out of range", ErrInvalidConfig, c.RESTServer.HTTPPort)
	}
	if (c.RESTServer.TLSCertPath == "") != (c.RESTServer.TLSKeyPath == "") {
		return fmt.Errorf("%w: rest tls-cert-path and tls-key-path must be set together", ErrInvalidConfig)
	}

	if sq := c.Storage.SQLite; sq != nil {
		if sq.Path == "" {
			return fmt.Errorf("%w: storage sqlite path is required", ErrInvalidConfig)
		}
		if sq.Retention < 0 {
			return fmt.Errorf("%w: storage sqlite retention can't be negative", ErrInvalidConfig)
		}
	}
	if ts := c.Storage.TimescaleDB; ts != nil && ts.ConnectionString == "" {
		return fmt.Errorf("%w: storage timescaledb connection-string is required", ErrInvalidConfig)
	}
	if m := c.Storage.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("%w: storage mqtt broker is required", ErrInvalidConfig)
		}
		if m.QoS > 2 {
			return fmt.Errorf("%w: storage mqtt qos must be 0, 1 or 2", ErrInvalidConfig)
		}
	}

	return nil
}

// DefaultProvider serves the built-in configuration
type DefaultProvider struct{}

// NewDefaultProvider creates a provider backed by DefaultConfig
func NewDefaultProvider() *DefaultProvider {
	return &DefaultProvider{}
}

func (DefaultProvider) LoadConfig() (*ConfigData, error) {
	return DefaultConfig(), nil
}

func (DefaultProvider) GetStorageConfig() (*StorageData, error) {
	return &StorageData{}, nil
}

func (DefaultProvider) GetRESTServerConfig() (*RESTServerData, error) {
	return &DefaultConfig().RESTServer, nil
}

func (DefaultProvider) IsReadOnly() bool {
	return true
}

func (DefaultProvider) Close() error {
	return nil
}
