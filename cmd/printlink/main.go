// printlink links a 3D printer's serial interface to the local network.
//
// It watches the printer's output stream, maintains the layered
// reportable state, records transition history, publishes state over
// MQTT, streams telemetry to InfluxDB, and serves a REST/WebSocket API
// for job control.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ondraz/printlink/migrations"

	"github.com/ondraz/printlink/internal/api"
	"github.com/ondraz/printlink/internal/command"
	"github.com/ondraz/printlink/internal/filejob"
	"github.com/ondraz/printlink/internal/history"
	"github.com/ondraz/printlink/internal/infrastructure/config"
	"github.com/ondraz/printlink/internal/infrastructure/database"
	"github.com/ondraz/printlink/internal/infrastructure/influxdb"
	"github.com/ondraz/printlink/internal/infrastructure/logging"
	"github.com/ondraz/printlink/internal/infrastructure/mqtt"
	"github.com/ondraz/printlink/internal/report"
	"github.com/ondraz/printlink/internal/serial"
	"github.com/ondraz/printlink/internal/state"
	"github.com/ondraz/printlink/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// simulatedDevice is the serial.device value that swaps the real port
// for the built-in simulator.
const simulatedDevice = "simulated"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting printlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Open the printer's serial port
	port, err := openPort(cfg, log)
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	defer func() {
		log.Info("closing serial port")
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing serial port", "error", closeErr)
		}
	}()

	// State manager and output routing
	manager := state.NewManager()
	manager.SetLogger(log)

	parser := serial.NewParser()
	parser.SetLogger(log)
	serial.RegisterStateHandlers(parser, manager)

	reader := serial.NewReader(port, parser)
	reader.SetLogger(log)
	reader.SetOnError(func(error) {
		manager.SerialErrorRaised()
	})
	go func() {
		//nolint:errcheck // failures surface through SetOnError
		reader.Run(ctx)
	}()

	// Command dispatcher
	dispatcher := command.NewDispatcher(port, parser, manager)
	dispatcher.SetLogger(log)

	// Transition history
	historyRepo := history.NewSQLiteRepository(db.DB)
	recorder := history.NewRecorder(historyRepo)
	recorder.SetLogger(log)
	manager.OnStateChange(recorder.Enqueue)
	go recorder.Run(ctx)

	// MQTT reporter (optional)
	var (
		reporter   *report.Reporter
		mqttClient *mqtt.Client
	)
	if cfg.MQTT.Enabled {
		var connErr error
		mqttClient, connErr = mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		reporter = report.NewReporter(mqttClient, cfg.Printer.ID)
		reporter.SetLogger(log)
		manager.OnStateChange(reporter.HandleTransition)
		go reporter.Run(ctx)
		log.Info("MQTT reporter started",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"printer_id", cfg.Printer.ID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		manager.OnStateChange(func(tr state.Transition) {
			influxClient.WriteStateChange(cfg.Printer.ID, string(tr.From), string(tr.To), string(tr.Source))
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Telemetry collection and polling
	var sinks telemetry.MultiSink
	if influxClient != nil {
		sinks = append(sinks, influxClient)
	}
	if reporter != nil {
		sinks = append(sinks, reporter)
	}
	if len(sinks) > 0 {
		telemetry.NewCollector(parser, sinks, cfg.Printer.ID)
	}

	poller := telemetry.NewPoller(dispatcher, cfg.TelemetryInterval())
	poller.SetLogger(log)
	go poller.Run(ctx)

	// File job driver
	jobRepo := filejob.NewSQLiteRepository(db.DB)
	driver := filejob.NewDriver(dispatcher, manager, jobRepo)
	driver.SetLogger(log)
	manager.SetJobStatus(driver)

	// Remote job commands over MQTT
	if mqttClient != nil {
		listener := report.NewListener(driver)
		listener.SetLogger(log)
		if err := listener.Start(mqttClient, cfg.Printer.ID, byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("starting MQTT command listener: %w", err)
		}
		log.Info("MQTT command listener started", "printer_id", cfg.Printer.ID)
	}

	// API server
	deps := api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Manager:    manager,
		History:    historyRepo,
		Jobs:       driver,
		JobHistory: jobRepo,
		Version:    version,
	}
	if reporter != nil {
		deps.Reporter = reporter
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	manager.OnStateChange(server.HandleTransition)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, serial port, database.

	log.Info("printlink stopped")
	return nil
}

// openPort opens the configured serial device, or the simulator when
// serial.device is set to "simulated".
func openPort(cfg *config.Config, log *logging.Logger) (io.ReadWriteCloser, error) {
	if cfg.Serial.Device == simulatedDevice {
		log.Warn("using simulated printer - no serial device will be opened")
		return newSimulatedPort(), nil
	}
	log.Info("opening serial port", "device", cfg.Serial.Device, "baud_rate", cfg.Serial.BaudRate)
	return serial.OpenPort(serial.PortConfig{
		Device:   cfg.Serial.Device,
		BaudRate: cfg.Serial.BaudRate,
	})
}

// getConfigPath returns the configuration file path.
// Uses the PRINTLINK_CONFIG environment variable if set, otherwise the
// default.
func getConfigPath() string {
	if path := os.Getenv("PRINTLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
