package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	jenkins "github.com/ethereum-optimism/infra/jenkins-reporter"
	"github.com/ethereum-optimism/infra/jenkins-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/jenkins-reporter/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "jenkins-reporter"
	app.Usage = "Write browser test results as JUnit XML for Jenkins"
	app.Description = "jenkins-reporter turns test runner lifecycle events into a JUnit XML report"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.Commands = []*cli.Command{
		SummaryCommand(),
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if code := exitCode(err); code != exitcodes.Success {
			cli.HandleExitCoder(cli.Exit(err.Error(), code))
		}
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

// exitCode maps an application error to the process exit status. Errors that
// carry no code of their own count as test failures.
func exitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitcodes.TestFailure
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := jenkins.NewConfig(ctx, log)
	if err != nil {
		return nil, jenkins.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	reporter, err := jenkins.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, jenkins.NewRuntimeError(fmt.Errorf("failed to create reporter: %w", err))
	}

	return reporter, nil
}
