package types

import (
	"errors"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config holds the parameters of a pipeline run.
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir" validate:"required"`
	BronzeDir   string `json:"bronze_dir" yaml:"bronze_dir"`
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`
	Workers     int    `json:"workers" yaml:"workers" validate:"gte=0,lte=64"`
	LogLevel    string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	PrettyLogs  bool   `json:"pretty_logs" yaml:"pretty_logs"`
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`
}

// Default file layout under DataDir.
const (
	DefaultBronzeDirName   = "bronze"
	DefaultCatalogFileName = "catalog.db"
	DefaultLogLevel        = "info"
)

// Config validation errors.
var (
	ErrDataDirEmpty    = errors.New("data dir must not be empty")
	ErrWorkersInvalid  = errors.New("workers must be between 0 and 64")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

var configValidate = validator.New()

// fieldErrors maps struct fields to the sentinel returned for them.
var fieldErrors = map[string]error{
	"DataDir":  ErrDataDirEmpty,
	"Workers":  ErrWorkersInvalid,
	"LogLevel": ErrLogLevelUnknown,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package for the first invalid field.
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if sentinel, ok := fieldErrors[fe.Field()]; ok {
				return sentinel
			}
		}
	}
	return err
}

// WithDefaults fills the optional fields from DataDir. Workers stays 0,
// which the pipeline reads as one worker per entity.
func (c Config) WithDefaults() Config {
	if c.BronzeDir == "" && c.DataDir != "" {
		c.BronzeDir = filepath.Join(c.DataDir, DefaultBronzeDirName)
	}
	if c.CatalogPath == "" && c.DataDir != "" {
		c.CatalogPath = filepath.Join(c.DataDir, DefaultCatalogFileName)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}
