package jenkins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/jenkins-reporter/config"
	"github.com/ethereum-optimism/infra/jenkins-reporter/flags"
)

// Config holds the application configuration
type Config struct {
	BasePath       string // Directory a relative output file is resolved against
	Suite          string // Package label prefixed to class and package names
	OutputFile     string // Absolute path of the XML report
	UseBrowserName bool   // Prefix class names with the browser name
	EventsPath     string // Event stream replayed when not listening, "-" for stdin
	ListenAddr     string // Address of the event ingest server, empty for replay mode
	HealthzAddr    string
	PrintSummary   bool
	Metrics        opmetrics.CLIConfig
	Log            log.Logger
}

// NewConfig creates a new Config from cli context. Values from the --config file
// are applied first; flags override them only when explicitly set.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := &Config{
		UseBrowserName: true,
		EventsPath:     ctx.String(flags.Events.Name),
		ListenAddr:     ctx.String(flags.Listen.Name),
		HealthzAddr:    ctx.String(flags.HealthzAddr.Name),
		PrintSummary:   ctx.Bool(flags.PrintSummary.Name),
		Metrics:        opmetrics.ReadCLIConfig(ctx),
		Log:            log,
	}

	var outputFile string
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		file, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg.BasePath = file.ResolvedBasePath()
		cfg.Suite = file.JenkinsReporter.Suite
		cfg.UseBrowserName = file.JenkinsReporter.UseBrowserName()
		outputFile = file.JenkinsReporter.OutputFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.BasePath = wd
	}

	if ctx.IsSet(flags.BasePath.Name) {
		abs, err := filepath.Abs(ctx.String(flags.BasePath.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for base path '%s': %w", ctx.String(flags.BasePath.Name), err)
		}
		cfg.BasePath = abs
	}
	if ctx.IsSet(flags.Suite.Name) {
		cfg.Suite = ctx.String(flags.Suite.Name)
	}
	if ctx.IsSet(flags.UseBrowserName.Name) {
		cfg.UseBrowserName = ctx.Bool(flags.UseBrowserName.Name)
	}
	if ctx.IsSet(flags.OutputFile.Name) {
		outputFile = ctx.String(flags.OutputFile.Name)
	}

	if strings.ContainsAny(cfg.Suite, "\n\r") {
		return nil, errors.New("suite must be a single line")
	}

	resolved, err := config.ResolveOutputFile(cfg.BasePath, outputFile)
	if err != nil {
		return nil, err
	}
	cfg.OutputFile = resolved

	return cfg, nil
}
