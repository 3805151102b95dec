package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "JENKINS_REPORTER"

// StdinPath selects standard input as the event source.
const StdinPath = "-"

var (
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a runner config file (yaml, json or toml) with basePath and a jenkinsReporter section",
	}
	BasePath = &cli.StringFlag{
		Name:    "base-path",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BASE_PATH"),
		Usage:   "Base directory the output file is resolved against (defaults to the config file directory or the working directory)",
	}
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Package label prefixed to class and package names",
	}
	OutputFile = &cli.StringFlag{
		Name:    "output-file",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_FILE"),
		Usage:   "Destination of the XML report (default 'test-results.xml')",
	}
	UseBrowserName = &cli.BoolFlag{
		Name:    "use-browser-name",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "USE_BROWSER_NAME"),
		Usage:   "Prefix class names with the browser name",
	}
	Events = &cli.StringFlag{
		Name:    "events",
		Value:   StdinPath,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EVENTS"),
		Usage:   "File of newline delimited lifecycle events to replay, '-' for stdin. Ignored with --listen",
	}
	Listen = &cli.StringFlag{
		Name:    "listen",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LISTEN"),
		Usage:   "Address to receive lifecycle events on over HTTP and websocket (eg. '127.0.0.1:9877'). Empty for replay mode",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz.addr",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Address of the healthz server, disabled when empty",
	}
	PrintSummary = &cli.BoolFlag{
		Name:    "print-summary",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PRINT_SUMMARY"),
		Usage:   "Print a per-browser summary table when a run completes",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	ConfigFile,
	BasePath,
	Suite,
	OutputFile,
	UseBrowserName,
	Events,
	Listen,
	HealthzAddr,
	PrintSummary,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
