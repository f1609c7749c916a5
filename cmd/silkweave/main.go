package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/config"
	"github.com/hanpama/silkweave/internal/entity"
	"github.com/hanpama/silkweave/internal/entity/sqlstore"
	"github.com/hanpama/silkweave/internal/eventbus"
	"github.com/hanpama/silkweave/internal/example"
	"github.com/hanpama/silkweave/internal/logging"
	"github.com/hanpama/silkweave/internal/middleware"
	"github.com/hanpama/silkweave/internal/otel"
	"github.com/hanpama/silkweave/internal/server"
	"github.com/hanpama/silkweave/internal/weaver"
)

const rootUsage = `silkweave: weave GraphQL schemas from native schemas

USAGE:
  silkweave <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint over the demo schema
  print            Print the SDL of the demo schema
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>                 HTTP listen address (env SERVER_ADDR, default: :8080)
  -server.pretty                      Pretty-print JSON responses (env SERVER_PRETTY)
  -server.timeout <duration>          Per-request timeout (env SERVER_TIMEOUT, default: 10s)
  -server.metadata-header <name>      Forward HTTP header to gRPC metadata. Repeatable
  -server.cors-origin <origin>        Allow a CORS origin. Repeatable
  -weaver.max-concurrency N           Concurrent resolvers per depth, 0 = unbounded
                                      (env WEAVER_MAX_CONCURRENCY)
  -db.dsn <dsn>                       Postgres DSN for the books entity (env DATABASE_URL).
                                      Books are kept in memory when empty
  -otel.endpoint <addr>               OTLP collector endpoint (env OTEL_ENDPOINT)
  -otel.service <name>                OpenTelemetry service name (default: silkweave)
`

const printUsage = `print FLAGS:
  -out <file>              Write SDL to file (default: stdout)
`

func main() {
	logger := logging.NewLoggerWithService("silkweave")
	config.LoadEnv(logger)
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		logger.WithError(err).Fatal("silkweave failed")
	}
}

func run(args []string, stdout io.Writer, logger logrus.FieldLogger) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, logger)
	case "print":
		return cmdPrint(cmdArgs, stdout)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "print":
		fmt.Fprint(stdout, printUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdPrint(args []string, stdout io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printUsage)
		return err
	}

	res, err := weaver.Weave(example.New(entity.NewMemoryStore()).Resolvers()...)
	if err != nil {
		return fmt.Errorf("weave: %w", err)
	}
	sdl := res.SDL()
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0o644)
}

type serveConfig struct {
	addr            string
	pretty          bool
	timeout         time.Duration
	metadataHeaders stringListFlag
	corsOrigins     stringListFlag
	maxConcurrency  int
	dsn             string
	otelEndpoint    string
	otelService     string
}

func parseServe(args []string) (*serveConfig, error) {
	c := &serveConfig{
		addr:           config.GetEnv("SERVER_ADDR", ":8080"),
		pretty:         config.GetEnvBool("SERVER_PRETTY", false),
		timeout:        config.GetEnvDuration("SERVER_TIMEOUT", 10*time.Second),
		maxConcurrency: config.GetEnvInt("WEAVER_MAX_CONCURRENCY", 0),
		dsn:            config.GetEnv("DATABASE_URL", ""),
		otelEndpoint:   config.GetEnv("OTEL_ENDPOINT", ""),
		otelService:    config.GetEnv("OTEL_SERVICE", "silkweave"),
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&c.addr, "server.addr", c.addr, "HTTP listen address")
	fs.BoolVar(&c.pretty, "server.pretty", c.pretty, "Pretty-print JSON responses")
	fs.DurationVar(&c.timeout, "server.timeout", c.timeout, "Per-request timeout")
	fs.Var(&c.metadataHeaders, "server.metadata-header", "Forward HTTP header to gRPC metadata")
	fs.Var(&c.corsOrigins, "server.cors-origin", "Allow a CORS origin")
	fs.IntVar(&c.maxConcurrency, "weaver.max-concurrency", c.maxConcurrency, "Concurrent resolvers per depth")
	fs.StringVar(&c.dsn, "db.dsn", c.dsn, "Postgres DSN")
	fs.StringVar(&c.otelEndpoint, "otel.endpoint", c.otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&c.otelService, "otel.service", c.otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return nil, err
	}
	return c, nil
}

func cmdServe(args []string, logger logrus.FieldLogger) error {
	c, err := parseServe(args)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdownTracing, err := otel.Setup(c.otelEndpoint, c.otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var store entity.Store = entity.NewMemoryStore()
	if c.dsn != "" {
		db, err := sqlstore.Open(c.dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		store = sqlstore.NewStore(db, sqlstore.WithLogger(logger))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewMetrics("silkweave", reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	w := weaver.New(
		weaver.WithLogger(logger),
		weaver.WithMaxConcurrency(c.maxConcurrency),
		weaver.WithMiddlewares(
			middleware.Logging(logger),
			metrics.Middleware(),
			otel.Middleware(otel.Tracer()),
		),
	)
	res, err := w.Weave(example.New(store).Resolvers()...)
	if err != nil {
		return fmt.Errorf("weave: %w", err)
	}

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(c.timeout),
		server.WithRequestContext(entity.WithUnitOfWork),
	}
	if c.pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(c.metadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(c.metadataHeaders...))
	}
	if len(c.corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(c.corsOrigins...))
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(res, sopts...))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: c.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.WithField("addr", c.addr).Info("GraphQL server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
