package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dataportal/internal/flagx"
	"github.com/dmitrijs2005/dataportal/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "24h" style
// strings or integer nanoseconds.
type JsonConfig struct {
	DatabaseDriver     string         `json:"database_driver"`
	DatabaseDSN        string         `json:"database_dsn"`
	SessionSecret      string         `json:"session_secret"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	SimulateLatency    bool           `json:"simulate_latency"`
	SeedDemoAccounts   bool           `json:"seed_demo_accounts"`
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	MetricsAddr        string         `json:"metrics_addr"`
	LogLevel           string         `json:"log_level"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
}

func fromConfig(c *Config) JsonConfig {
	return JsonConfig{
		DatabaseDriver:     c.DatabaseDriver,
		DatabaseDSN:        c.DatabaseDSN,
		SessionSecret:      c.SessionSecret,
		SessionTTL:         timex.Duration{Duration: c.SessionTTL},
		SimulateLatency:    c.SimulateLatency,
		SeedDemoAccounts:   c.SeedDemoAccounts,
		EndpointAddrGRPC:   c.EndpointAddrGRPC,
		ServerEndpointAddr: c.ServerEndpointAddr,
		MetricsAddr:        c.MetricsAddr,
		LogLevel:           c.LogLevel,
		S3RootUser:         c.S3RootUser,
		S3RootPassword:     c.S3RootPassword,
		S3Bucket:           c.S3Bucket,
		S3Region:           c.S3Region,
		S3BaseEndpoint:     c.S3BaseEndpoint,
	}
}

func (jc JsonConfig) apply(c *Config) {
	c.DatabaseDriver = jc.DatabaseDriver
	c.DatabaseDSN = jc.DatabaseDSN
	c.SessionSecret = jc.SessionSecret
	c.SessionTTL = jc.SessionTTL.Duration
	c.SimulateLatency = jc.SimulateLatency
	c.SeedDemoAccounts = jc.SeedDemoAccounts
	c.EndpointAddrGRPC = jc.EndpointAddrGRPC
	c.ServerEndpointAddr = jc.ServerEndpointAddr
	c.MetricsAddr = jc.MetricsAddr
	c.LogLevel = jc.LogLevel
	c.S3RootUser = jc.S3RootUser
	c.S3RootPassword = jc.S3RootPassword
	c.S3Bucket = jc.S3Bucket
	c.S3Region = jc.S3Region
	c.S3BaseEndpoint = jc.S3BaseEndpoint
}

// parseJSON overlays cfg with the JSON file named by -c or -config in args.
// Keys missing from the file keep their current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	jc := fromConfig(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}
