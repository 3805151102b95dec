package jenkins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/jenkins-reporter/events"
	"github.com/ethereum-optimism/infra/jenkins-reporter/flags"
	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
	"github.com/ethereum-optimism/infra/jenkins-reporter/reporting"
	"github.com/ethereum-optimism/infra/jenkins-reporter/service"
)

// eventBufferSize bounds the events queued between the ingest server and the dispatcher.
const eventBufferSize = 256

// reporterApp implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &reporterApp{}

// reporterApp feeds lifecycle events, replayed from a stream or received over
// the network, into a JenkinsReporter.
type reporterApp struct {
	config     *Config
	version    string
	reporter   *JenkinsReporter
	dispatcher *events.Dispatcher
	services   *service.Service

	ingest         *service.IngestServer
	queue          chan *events.Event
	stopDispatcher context.CancelFunc

	stdin  io.Reader
	stdout io.Writer

	running atomic.Bool
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*reporterApp, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating reporter with config",
		"basePath", config.BasePath,
		"outputFile", config.OutputFile,
		"suite", config.Suite,
		"useBrowserName", config.UseBrowserName,
		"listen", config.ListenAddr)

	a := &reporterApp{
		config:   config,
		version:  version,
		reporter: NewJenkinsReporter(config),
		services: service.New(service.Config{
			HealthzAddr: config.HealthzAddr,
			Metrics:     config.Metrics,
		}, config.Log),
		stdin:            os.Stdin,
		stdout:           os.Stdout,
		shutdownCallback: shutdownCallback,
	}
	a.dispatcher = events.NewDispatcher(a.reporter, config.Log)

	if config.PrintSummary {
		a.reporter.WithRunCompleteHook(func(runID string, doc *junit.TestSuites) {
			table := reporting.NewSummaryTable(fmt.Sprintf("Test Results (run %s)", runID), a.stdout)
			if err := table.Print(doc); err != nil {
				config.Log.Warn("Cannot print summary", "err", err)
			}
		})
	}
	return a, nil
}

// Start implements the cliapp.Lifecycle interface. Without a listen address
// it replays the configured event stream, waits for the report to be written
// and asks the application to shut down.
func (a *reporterApp) Start(ctx context.Context) error {
	a.running.Store(true)
	a.services.Start()

	if a.config.ListenAddr != "" {
		return a.startServer(ctx)
	}
	return a.replay(ctx)
}

func (a *reporterApp) startServer(ctx context.Context) error {
	queue := make(chan *events.Event, eventBufferSize)
	ingest := service.NewIngestServer(a.config.Log, queue)
	if err := ingest.Start(a.config.ListenAddr); err != nil {
		return NewRuntimeError(err)
	}
	a.queue, a.ingest = queue, ingest

	// drains the queue after Stop closes it, even once ctx is canceled
	dispatchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopDispatcher = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.dispatcher.Run(dispatchCtx, a.queue)
	}()

	a.config.Log.Info("jenkins-reporter started", "mode", "server", "addr", a.ingest.Addr(), "output", a.reporter.OutputFile(), "version", a.version)
	return nil
}

func (a *reporterApp) replay(ctx context.Context) error {
	src, closeSrc, err := a.openEvents()
	if err != nil {
		return NewRuntimeError(err)
	}
	defer closeSrc()

	a.config.Log.Info("jenkins-reporter started", "mode", "replay", "events", a.config.EventsPath, "output", a.reporter.OutputFile(), "version", a.version)

	type result struct {
		applied int
		err     error
	}
	done := make(chan result, 1)
	go func() {
		n, err := a.dispatcher.Replay(ctx, events.NewDecoder(src))
		done <- result{applied: n, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.err != nil {
		a.config.Log.Error("Failed to replay events", "applied", res.applied, "err", res.err)
		return NewRuntimeError(fmt.Errorf("failed to replay events: %w", res.err))
	}
	a.config.Log.Info("Events replayed", "applied", res.applied)

	if err := a.reporter.WaitForWrites(ctx); err != nil {
		return err
	}

	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

func (a *reporterApp) openEvents() (io.Reader, func(), error) {
	if a.config.EventsPath == "" || a.config.EventsPath == flags.StdinPath {
		return a.stdin, func() {}, nil
	}
	f, err := os.Open(a.config.EventsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open events file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// Stop implements the cliapp.Lifecycle interface. It stops receiving events,
// lets queued events reach the reporter and holds until every report is written.
func (a *reporterApp) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping jenkins-reporter")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)

	var result error
	if a.ingest != nil {
		if err := a.ingest.Shutdown(ctx); err != nil {
			// handlers may still be running, so the queue stays open
			result = errors.Join(result, fmt.Errorf("failed to stop ingest server: %w", err))
			a.stopDispatcher()
		} else {
			close(a.queue)
		}
		a.wg.Wait()
		a.stopDispatcher()
	}

	if n := a.reporter.PendingWrites(); n > 0 {
		a.config.Log.Info("Waiting for reports to be written", "pending", n)
	}
	if err := a.reporter.WaitForWrites(ctx); err != nil {
		result = errors.Join(result, fmt.Errorf("reports still pending at shutdown: %w", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	a.services.Shutdown(shutdownCtx)

	a.config.Log.Info("jenkins-reporter stopped successfully")
	return result
}

// Stopped implements the cliapp.Lifecycle interface.
func (a *reporterApp) Stopped() bool {
	return !a.running.Load()
}
