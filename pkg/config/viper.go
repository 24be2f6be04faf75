// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	radarconfig "github.com/JakeFAU/academic-radar/internal/config"
	"github.com/JakeFAU/academic-radar/internal/logging"
)

// File is an explicit config file path set by the --config flag. When empty
// the search paths below are used.
var File string

// InitConfig initializes the global Viper instance: defaults, search paths,
// environment overrides and finally the config file. It is called once by
// cobra before any command runs.
func InitConfig() {
	v := viper.GetViper()

	if File != "" {
		v.SetConfigFile(File)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")            // Current working directory
		v.AddConfigPath("/etc/radar/")  // System-wide configuration
		v.AddConfigPath("$HOME/.radar") // User-specific configuration
	}

	radarconfig.SetDefaults(v)

	// e.g. RADAR_STORE_PROVIDER=gcs
	v.SetEnvPrefix(radarconfig.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
		return
	}
	logging.L.Info("Using config file", zap.String("path", v.ConfigFileUsed()))
}
