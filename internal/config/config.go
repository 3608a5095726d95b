package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/filex"
)

const (
	dataDirName    = "data"
	dataFileName   = "portal.db"
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// Config holds runtime settings shared by the portal server and client.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: "sqlite" (file or ":memory:") or "pgx".
//     An empty SQLite DSN resolves to <cwd>/data/portal.db.
//   - SessionSecret: HMAC key for session tokens. Empty means a secret is
//     generated once and kept in the store.
//   - SessionTTL: lifetime of a session token.
//   - SimulateLatency: add the fixed per-call delays of the demo backend.
//   - SeedDemoAccounts: create the demo accounts on an empty store.
//   - EndpointAddrGRPC: bind address of the gRPC gateway.
//   - ServerEndpointAddr: gateway address for the client; empty runs the
//     client against the local store.
//   - MetricsAddr: bind address of the Prometheus endpoint, empty disables it.
//   - S3*: object storage used by the audit export. Export is disabled when
//     S3Bucket is empty.
type Config struct {
	DatabaseDriver     string
	DatabaseDSN        string
	SessionSecret      string
	SessionTTL         time.Duration
	SimulateLatency    bool
	SeedDemoAccounts   bool
	EndpointAddrGRPC   string
	ServerEndpointAddr string
	MetricsAddr        string
	LogLevel           string
	S3RootUser         string
	S3RootPassword     string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = driverSQLite
	c.DatabaseDSN = ""
	c.SessionSecret = ""
	c.SessionTTL = 24 * time.Hour
	c.SimulateLatency = false
	c.SeedDemoAccounts = true
	c.EndpointAddrGRPC = ":50051"
	c.ServerEndpointAddr = ""
	c.MetricsAddr = ":9090"
	c.LogLevel = "info"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case driverSQLite, driverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == driverPostgres && c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is required for driver %q", c.DatabaseDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// ResolveDSN returns DatabaseDSN, falling back to the default SQLite data
// file (creating its directory) when it is empty.
func (c *Config) ResolveDSN() (string, error) {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN, nil
	}
	return filex.DataFile(dataDirName, dataFileName)
}

// ExportEnabled reports whether the audit export has a bucket to write to.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}

// Load builds a Config from defaults, then the JSON file named by -c/-config
// and finally the command-line flags in args (without the program name).
// Later sources take precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args; it panics on invalid input.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
