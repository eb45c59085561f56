package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/adapters/metrics"
	"github.com/pbxtools/pbxdoc/adapters/sqldb"
	"github.com/pbxtools/pbxdoc/adapters/sshtunnel"
	"github.com/pbxtools/pbxdoc/adapters/webpage"
	"github.com/pbxtools/pbxdoc/app"
	"github.com/pbxtools/pbxdoc/config"
	"github.com/pbxtools/pbxdoc/core/catalog"
	"github.com/pbxtools/pbxdoc/core/dest"
	"github.com/pbxtools/pbxdoc/core/model"
	"github.com/pbxtools/pbxdoc/ports"
)

// newLogger builds the process logger from the logging config.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// runtime is a fully wired application: schema catalog, database, optional
// web session, destination engine and the generation service.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Collector
	svc     *app.Service

	closers []io.Closer
}

// Close tears down the runtime in reverse wiring order.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i].Close()
	}
}

// buildRuntime wires every adapter the configuration asks for. The metrics
// collector may be nil (generate mode has nowhere to expose it).
func buildRuntime(ctx context.Context, cfg *config.Config, progress ports.ProgressSink, logger zerolog.Logger, collector *metrics.Collector) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, metrics: collector}

	reg, err := catalog.New()
	if err != nil {
		return nil, fmt.Errorf("build module catalog: %w", err)
	}

	rows, err := openRowSource(cfg, logger, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var pages ports.PageSource
	if cfg.PBX.ScrapePages {
		client, err := webpage.New(cfg.PBX.Host, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("web client: %w", err)
		}
		if err := client.Login(ctx, cfg.PBX.Username, cfg.PBX.Password); err != nil {
			rt.Close()
			return nil, fmt.Errorf("admin login: %w", err)
		}
		pages = client
	}

	pc := &model.Context{
		Schemas:  reg,
		Rows:     rows,
		Pages:    pages,
		Progress: progress,
		Dest:     dest.New(reg),
		Log:      logger,
	}
	rt.svc = app.New(reg, pc, collector, logger)
	return rt, nil
}

// openRowSource connects to the configuration database. A "sqlite3" driver
// reads a local snapshot file; "mysql" reaches the live PBX, through an SSH
// port forward when the tunnel is enabled.
func openRowSource(cfg *config.Config, logger zerolog.Logger, rt *runtime) (ports.RowSource, error) {
	switch cfg.Database.Driver {
	case "sqlite3":
		src, err := sqldb.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, src)
		return src, nil

	case "mysql":
		dsn := cfg.Database.DSN
		if cfg.Database.Tunnel.Enabled {
			tunnel, err := sshtunnel.Open(sshtunnel.Config{
				Host:       cfg.PBX.Host,
				Port:       cfg.Database.Tunnel.Port,
				User:       cfg.PBX.Username,
				Password:   cfg.PBX.Password,
				RemoteAddr: cfg.Database.Tunnel.RemoteAddr,
			}, logger)
			if err != nil {
				return nil, err
			}
			rt.closers = append(rt.closers, tunnel)
			dsn = mysqlDSN(cfg, tunnel.Addr())
		} else if dsn == "" {
			dsn = mysqlDSN(cfg, cfg.PBX.Host+":3306")
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		src := sqldb.New(db)
		rt.closers = append(rt.closers, src)
		return src, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func mysqlDSN(cfg *config.Config, addr string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s",
		cfg.Database.User, cfg.Database.Password, addr, cfg.Database.Name)
}
