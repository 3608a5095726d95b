package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/flagx"
)

var (
	valuedFlags = []string{"-D", "-d", "-s", "-t", "-a", "-r", "-m", "-v", "-u", "-p", "-b", "-g", "-e"}
	switchFlags = []string{"-l", "-seed"}
)

// parseFlags populates Config fields from command-line flags.
//
//	-D string   database driver (sqlite|pgx)
//	-d string   database DSN
//	-s string   session token secret
//	-t int      session validity, minutes
//	-l          simulate backend latency
//	-seed       seed demo accounts into an empty store
//	-a string   gRPC bind address
//	-r string   gRPC server address for the client (empty: local store)
//	-m string   metrics bind address
//	-v string   log level (debug|info|warn|error)
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, endpoint
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, valuedFlags, switchFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "D", cfg.DatabaseDriver, "database driver (sqlite|pgx)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SessionSecret, "s", cfg.SessionSecret, "session token secret")
	ttl := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session validity (in minutes)")
	fs.BoolVar(&cfg.SimulateLatency, "l", cfg.SimulateLatency, "simulate backend latency")
	fs.BoolVar(&cfg.SeedDemoAccounts, "seed", cfg.SeedDemoAccounts, "seed demo accounts")
	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&cfg.ServerEndpointAddr, "r", cfg.ServerEndpointAddr, "address and port of remote server")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address and port of metrics endpoint")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for audit export")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.SessionTTL = time.Duration(*ttl) * time.Minute
	return nil
}
