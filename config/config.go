// Package config loads reporter settings from a runner configuration file.
//
// The file mirrors the host runner's layout: a top level basePath and a
// jenkinsReporter namespace. YAML (and therefore JSON) is the default format;
// files ending in .toml are decoded as TOML.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultOutputFile is the report path used when the namespace does not set one.
const DefaultOutputFile = "test-results.xml"

type File struct {
	BasePath        string          `yaml:"basePath" toml:"basePath"`
	JenkinsReporter ReporterOptions `yaml:"jenkinsReporter" toml:"jenkinsReporter"`

	// directory of the file the settings were read from, used to anchor a relative basePath
	dir string
}

type ReporterOptions struct {
	Suite           string `yaml:"suite" toml:"suite"`
	OutputFile      string `yaml:"outputFile" toml:"outputFile"`
	UserBrowserName *bool  `yaml:"userBrowserName" toml:"userBrowserName"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*File, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file %s", path)
	}

	cfg := &File{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(contents), cfg); err != nil {
			return nil, errors.Wrapf(err, "error decoding toml config %s", path)
		}
	default:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, errors.Wrapf(err, "error decoding yaml config %s", path)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve absolute path for config '%s'", path)
	}
	cfg.dir = filepath.Dir(abs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *File) Validate() error {
	out := c.JenkinsReporter.OutputFile
	if out != "" && strings.HasSuffix(out, string(filepath.Separator)) {
		return errors.Errorf("jenkinsReporter.outputFile [%s] must name a file, not a directory", out)
	}
	if strings.ContainsAny(c.JenkinsReporter.Suite, "\n\r") {
		return errors.New("jenkinsReporter.suite must be a single line")
	}
	return nil
}

// ResolvedBasePath returns the base directory, anchored at the config file's
// directory when it is relative. An empty basePath means the config file's directory.
func (c *File) ResolvedBasePath() string {
	if filepath.IsAbs(c.BasePath) {
		return filepath.Clean(c.BasePath)
	}
	return filepath.Join(c.dir, c.BasePath)
}

// UseBrowserName reports whether class names get the browser prefix, defaulting to true.
func (o ReporterOptions) UseBrowserName() bool {
	if o.UserBrowserName == nil {
		return true
	}
	return *o.UserBrowserName
}

// ResolveOutputFile resolves outputFile against basePath the way the host runner
// resolves paths: absolute outputs win, relative ones are joined to basePath.
// An empty outputFile selects DefaultOutputFile.
func ResolveOutputFile(basePath, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = DefaultOutputFile
	}
	if !filepath.IsAbs(outputFile) {
		outputFile = filepath.Join(basePath, outputFile)
	}
	abs, err := filepath.Abs(outputFile)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve absolute path for output file '%s'", outputFile)
	}
	return abs, nil
}
