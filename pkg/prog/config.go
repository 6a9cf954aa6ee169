package prog

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"src.jsil.dev/pkg/compile"
)

// Config is the configuration of the command-line program.
type Config struct {
	Strict     bool   `yaml:"strict"`
	Compat     string `yaml:"compat"`
	ILAnalysis bool   `yaml:"il-analysis"`
	// Cache is the path of the code cache database. An empty path turns the
	// cache off.
	Cache       string        `yaml:"cache"`
	CacheMaxAge time.Duration `yaml:"cache-max-age"`
	LogLevel    string        `yaml:"log-level"`
	// LogFile is the file to write logs to instead of the standard error.
	LogFile string `yaml:"log-file"`
}

// LookupEnv looks up an environment variable.
type LookupEnv func(key string) (string, bool)

const configFile = "jsil/config.yaml"

// DefaultConfig returns the configuration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Compat:      "latest",
		Cache:       filepath.Join(xdg.CacheHome, "jsil", "programs.db"),
		CacheMaxAge: 30 * 24 * time.Hour,
		LogLevel:    "warning",
	}
}

// LoadConfig builds a configuration from the defaults, the YAML file at path
// and the environment, later layers overriding earlier ones. If path is
// empty, the file is searched for in the XDG configuration directories and
// may be absent.
func LoadConfig(path string, lookup LookupEnv) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		found, err := xdg.SearchConfigFile(configFile)
		if err == nil {
			path = found
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overrides the fields set in a YAML file.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parse config %s", path)
	}
	logger.Debugf("loaded config %s", path)
	return nil
}

// ApplyEnv overrides fields with the JSIL_* environment variables that are
// set.
func (c *Config) ApplyEnv(lookup LookupEnv) error {
	bools := []struct {
		key string
		ptr *bool
	}{
		{"JSIL_STRICT", &c.Strict},
		{"JSIL_IL_ANALYSIS", &c.ILAnalysis},
	}
	for _, b := range bools {
		if s, ok := lookup(b.key); ok {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return errors.Wrapf(err, "%s", b.key)
			}
			*b.ptr = v
		}
	}
	strs := []struct {
		key string
		ptr *string
	}{
		{"JSIL_COMPAT", &c.Compat},
		{"JSIL_CACHE", &c.Cache},
		{"JSIL_LOG_LEVEL", &c.LogLevel},
		{"JSIL_LOG_FILE", &c.LogFile},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.ptr = v
		}
	}
	return nil
}

// CompilerOptions returns the compiler options the configuration selects.
func (c Config) CompilerOptions() (compile.CompilerOptions, error) {
	mode, err := compile.ParseCompatibilityMode(c.Compat)
	if err != nil {
		return compile.CompilerOptions{}, err
	}
	return compile.CompilerOptions{
		ForceStrictMode:   c.Strict,
		CompatibilityMode: mode,
		EnableILAnalysis:  c.ILAnalysis,
	}, nil
}

// DotEnvLookup returns a LookupEnv that consults lookup first and then the
// variables defined in the dotenv file at path. A missing file is not an
// error.
func DotEnvLookup(path string, lookup LookupEnv) (LookupEnv, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lookup, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}
