package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/getmockd/webserver/pkg/cli/internal/output"
	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/logging"
	"github.com/getmockd/webserver/pkg/metrics"
	"github.com/getmockd/webserver/pkg/requestlog"
	"github.com/getmockd/webserver/pkg/routes"
	"github.com/getmockd/webserver/pkg/webserver"
)

// adminShutdownTimeout bounds the shutdown of the metrics endpoint.
const adminShutdownTimeout = 5 * time.Second

// serveFlags holds the command-line flags of the serve command.
type serveFlags struct {
	configFile     string
	listen         string
	echoPrefix     string
	metricsAddr    string
	logLevel       string
	logFormat      string
	logFile        string
	maxConnections int
	readTimeout    int
	writeTimeout   int
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server (foreground)",
		Long: `Start the server with the routes of a configuration file.

The server runs until it receives SIGINT or SIGTERM. In-flight requests get
server.shutdownTimeout seconds to finish before connections are closed.`,
		Example: `  # Serve routes from a config file
  webserver serve --config webserver.yaml

  # Echo every request under /echo/ as JSON on port 8080
  webserver serve --listen 8080 --echo-prefix /echo/

  # Expose Prometheus metrics
  webserver serve -c webserver.yaml --metrics-addr localhost:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.configFile)
			if err != nil {
				return err
			}
			f.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f.register(cmd.Flags())
	return cmd
}

// register defines the serve flags on fl.
func (f *serveFlags) register(fl *pflag.FlagSet) {
	fl.StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (or set WEBSERVER_CONFIG)")
	fl.StringVarP(&f.listen, "listen", "l", "", "Listen address: port or host:port (default localhost:5001)")
	fl.StringVar(&f.echoPrefix, "echo-prefix", "", "Prefix answering with the request serialized as JSON")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Listen address of the Prometheus /metrics endpoint (empty = disabled)")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fl.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	fl.IntVar(&f.maxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")
	fl.IntVar(&f.readTimeout, "read-timeout", 0, "Read timeout in seconds")
	fl.IntVar(&f.writeTimeout, "write-timeout", 0, "Write timeout in seconds")
}

// apply overrides cfg with the flags that were set explicitly.
func (f *serveFlags) apply(fl *pflag.FlagSet, cfg *config.Config) {
	if cfg.Server == nil {
		cfg.Server = config.DefaultServerConfiguration()
	}
	if fl.Changed("listen") {
		cfg.Listen = f.listen
	}
	if fl.Changed("echo-prefix") {
		cfg.EchoPrefix = f.echoPrefix
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fl.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fl.Changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if fl.Changed("max-connections") {
		cfg.Server.MaxConnections = f.maxConnections
	}
	if fl.Changed("read-timeout") {
		cfg.Server.ReadTimeout = f.readTimeout
	}
	if fl.Changed("write-timeout") {
		cfg.Server.WriteTimeout = f.writeTimeout
	}
}

// runServe serves until ctx is done.
func runServe(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	sess, err := startServe(cfg, stderr)
	if err != nil {
		return err
	}

	printServeStartupMessage(stdout, sess)

	<-ctx.Done()
	fmt.Fprintln(stdout, "\nShutting down...")

	if err := sess.Close(); err != nil {
		output.Warn(stderr, "shutdown: %v", err)
	}
	fmt.Fprintln(stdout, "Server stopped")
	return nil
}

// serveSession is a running server with its supporting endpoints.
type serveSession struct {
	log     *slog.Logger
	server  *webserver.Server
	history *requestlog.MemoryStore

	admin     *http.Server
	adminAddr string
	adminDone chan struct{}

	logFile *os.File
}

// startServe builds the logger, metrics and request history, registers the
// configured routes and starts listening.
func startServe(cfg *config.Config, stderr io.Writer) (*serveSession, error) {
	sess := &serveSession{}

	log, err := sess.openLogger(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}
	sess.log = log

	serverCfg := cfg.Server
	if serverCfg == nil {
		serverCfg = config.DefaultServerConfiguration()
	}
	sess.history = requestlog.NewMemoryStore(serverCfg.MaxLogEntries)

	opts := []webserver.Option{
		webserver.WithLogger(log),
		webserver.WithRequestLog(sess.history),
	}

	var registry *metricsRegistry
	if cfg.Metrics.Addr != "" {
		registry, err = newMetricsRegistry()
		if err != nil {
			sess.closeLogFile()
			return nil, err
		}
		opts = append(opts, webserver.WithMetrics(registry.collector))
	}

	sess.server = webserver.New(serverCfg, opts...)

	if err := routes.Register(sess.server, cfg.Routes); err != nil {
		sess.closeLogFile()
		return nil, err
	}
	routes.RegisterEcho(sess.server, cfg.EchoPrefix)

	if err := sess.server.Listen(cfg.Listen, nil); err != nil {
		sess.closeLogFile()
		return nil, err
	}

	if registry != nil {
		if err := sess.startAdmin(cfg.Metrics.Addr, registry); err != nil {
			_ = sess.server.Close()
			sess.closeLogFile()
			return nil, err
		}
	}

	return sess, nil
}

// openLogger builds the operational logger. With a log file configured,
// records go to both stderr and the file.
func (s *serveSession) openLogger(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	handler := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(cfg.Format),
		Output: stderr,
	})

	if cfg.File == "" {
		return slog.New(handler), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	s.logFile = f

	fileHandler := logging.NewHandler(logging.Config{
		Level:  level,
		Format: logging.FormatJSON,
		Output: f,
	})
	var reportOnce sync.Once
	multi := logging.NewMultiHandler(handler, fileHandler).OnError(func(err error) {
		reportOnce.Do(func() {
			output.Warn(stderr, "log file %s: %v (further failures are not reported)", cfg.File, err)
		})
	})
	return slog.New(multi), nil
}

// startAdmin serves /metrics, /routes and /requests on addr.
func (s *serveSession) startAdmin(addr string, registry *metricsRegistry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry.registry))
	mux.HandleFunc("/routes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = output.JSON(w, s.server.Routes())
	})
	mux.HandleFunc("/requests", s.handleRequests)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", addr, err)
	}

	s.admin = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.adminAddr = ln.Addr().String()
	s.adminDone = make(chan struct{})

	go func() {
		defer close(s.adminDone)
		if err := s.admin.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server error", "error", err)
		}
	}()

	s.log.Info("metrics endpoint listening", "addr", s.adminAddr)
	return nil
}

// handleRequests lists the request history, newest first, filtered by the
// method, path and limit query parameters. DELETE clears the history.
func (s *serveSession) handleRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		s.history.Clear()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method:     q.Get("method"),
		PathPrefix: q.Get("path"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	w.Header().Set("Content-Type", "application/json")
	_ = output.JSON(w, s.history.List(filter))
}

// Close stops the server and the metrics endpoint.
func (s *serveSession) Close() error {
	var errs []error

	if err := s.server.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
		defer cancel()
		if err := s.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
		<-s.adminDone
	}

	s.closeLogFile()
	return errors.Join(errs...)
}

func (s *serveSession) closeLogFile() {
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
}

// metricsRegistry pairs the registry served on /metrics with its collector.
type metricsRegistry struct {
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func newMetricsRegistry() (*metricsRegistry, error) {
	reg := metrics.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return &metricsRegistry{registry: reg, collector: collector}, nil
}

func printServeStartupMessage(w io.Writer, s *serveSession) {
	fmt.Fprintf(w, "Listening on %s\n", s.server.URL())
	fmt.Fprintf(w, "  Routes: %d\n", len(s.server.Routes()))
	if s.adminAddr != "" {
		fmt.Fprintf(w, "  Metrics: http://%s/metrics\n", s.adminAddr)
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}
