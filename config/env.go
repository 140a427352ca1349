package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/soypat/axial"
)

// Environment variables read by LoadEnv.
const (
	EnvParams   = "AXIAL_PARAMS"
	EnvOut      = "AXIAL_OUT"
	EnvLogLevel = "AXIAL_LOG_LEVEL"
	EnvPreview  = "AXIAL_PREVIEW"
)

// Env holds program defaults taken from the environment.
type Env struct {
	// Params is the parameter file path, empty for defaults.
	Params string
	// Out is the output file path.
	Out      string
	LogLevel log.Level
	// Preview is the preview image path, empty for none.
	Preview string
}

// LoadEnv loads the given dotenv files, or .env when none are given, and
// reads the AXIAL_* variables. A missing default .env is not an error.
// Variables already set in the environment take precedence.
func LoadEnv(defaultOut string, files ...string) (Env, error) {
	err := godotenv.Load(files...)
	if err != nil && !(len(files) == 0 && errors.Is(err, fs.ErrNotExist)) {
		return Env{}, fmt.Errorf("config: %w", err)
	}
	env := Env{
		Params:   os.Getenv(EnvParams),
		Out:      os.Getenv(EnvOut),
		Preview:  os.Getenv(EnvPreview),
		LogLevel: log.InfoLevel,
	}
	if env.Out == "" {
		env.Out = defaultOut
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		env.LogLevel, err = log.ParseLevel(lvl)
		if err != nil {
			return Env{}, fmt.Errorf("config: %s: %v: %w", EnvLogLevel, err, axial.ErrInvalidInput)
		}
	}
	return env, nil
}

// Apply sets the standard logger's level and format.
func (e Env) Apply() {
	log.SetLevel(e.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// LoadParams reads the parameter file named by e, or the defaults.
func (e Env) LoadParams() (*Config, error) {
	if e.Params == "" {
		return Default(), nil
	}
	return Load(e.Params)
}
