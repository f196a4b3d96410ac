package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/pkg/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// configFile is the structure init writes to config.yaml.
type configFile struct {
	DataDir     string `yaml:"data_dir"`
	BronzeDir   string `yaml:"bronze_dir,omitempty"`
	Workers     int    `yaml:"workers"`
	LogLevel    string `yaml:"log_level"`
	PrettyLogs  bool   `yaml:"pretty_logs"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the config and data directories",
		Long: "Pin the resolved data directory into config.yaml, create the data and\n" +
			"bronze directories and an empty catalog. An edited config.yaml is kept\n" +
			"unless --force is given.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an edited config.yaml")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, force bool) error {
	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}

	path := filepath.Join(a.configDir, configFileExt)
	written, err := writeConfig(path, cfg, force)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.MkdirAll(cfg.BronzeDir, 0o755); err != nil {
		return fmt.Errorf("create bronze directory: %w", err)
	}

	catalog, err := sqlite.Open(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("initialize catalog: %w", err)
	}
	if err := catalog.Detach(); err != nil {
		return fmt.Errorf("finalize catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "wrote %s\n", path)
	} else {
		fmt.Fprintf(out, "kept %s\n", path)
	}
	fmt.Fprintf(out, "strata initialized in %s\n", cfg.DataDir)
	return nil
}

// writeConfig writes cfg to path when the file is missing, still holds the
// first-run default, or force is set. It reports whether it wrote.
func writeConfig(path string, cfg types.Config, force bool) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if !force && !bytes.Equal(existing, []byte(defaultConfigYAML)) {
			return false, nil
		}
	case !os.IsNotExist(err):
		return false, err
	}

	file := configFile{
		DataDir:     cfg.DataDir,
		Workers:     cfg.Workers,
		LogLevel:    cfg.LogLevel,
		PrettyLogs:  cfg.PrettyLogs,
		MetricsFile: cfg.MetricsFile,
	}
	if cfg.BronzeDir != filepath.Join(cfg.DataDir, types.DefaultBronzeDirName) {
		file.BronzeDir = cfg.BronzeDir
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
