package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "STRATA"
	dotEnvFile     = ".env"
)

// Config keys, matching the yaml tags of types.Config.
const (
	cfgKeyDataDir     = "data_dir"
	cfgKeyBronzeDir   = "bronze_dir"
	cfgKeyCatalogPath = "catalog_path"
	cfgKeyWorkers     = "workers"
	cfgKeyLogLevel    = "log_level"
	cfgKeyPrettyLogs  = "pretty_logs"
	cfgKeyMetricsFile = "metrics_file"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# strata configuration
# Every key can be overridden with a STRATA_ environment variable,
# e.g. STRATA_WORKERS=4.

# Data directory holding bronze/, silver/, gold/ and catalog.db
# (overridable by --data-dir).
# data_dir:

# Bronze extract directory (default: <data_dir>/bronze)
# bronze_dir:

# Concurrent pipeline nodes; 0 runs every ready node at once.
workers: 0

# debug, info, warn or error
log_level: info
pretty_logs: false

# Prometheus textfile written after each run (optional)
# metrics_file:
`

// loadDotEnv loads ./.env into the process environment. A missing file is
// not an error; variables already set win.
func loadDotEnv() error {
	err := godotenv.Load(dotEnvFile)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", dotEnvFile, err)
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. STRATA_* environment variables override file
// values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyWorkers, 0)
	v.SetDefault(cfgKeyLogLevel, types.DefaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyDataDir, cfgKeyBronzeDir, cfgKeyCatalogPath, cfgKeyWorkers, cfgKeyLogLevel, cfgKeyPrettyLogs, cfgKeyMetricsFile} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// pipelineConfig assembles the run configuration. The data directory
// resolves flag > config.yaml > STRATA_DATA_DIR > ./data.
func pipelineConfig(v *viper.Viper, dataDirFlag string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		DataDir:     dataDir,
		BronzeDir:   v.GetString(cfgKeyBronzeDir),
		CatalogPath: v.GetString(cfgKeyCatalogPath),
		Workers:     v.GetInt(cfgKeyWorkers),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		PrettyLogs:  v.GetBool(cfgKeyPrettyLogs),
		MetricsFile: v.GetString(cfgKeyMetricsFile),
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
