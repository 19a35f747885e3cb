package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	portVar     = "port"
	appNameVar  = "app_name"
	envVar      = "env"
	logLevelVar = "log_level"
	logFileVar  = "log_file"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func setEnvDefaults(v *viper.Viper) {
	v.SetDefault(portVar, "8080")
	v.SetDefault(appNameVar, "Go Bank")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(logFileVar, "")
}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portVar)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(envVar)
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.GetString(logLevelVar))
}

// GetLogFile returns the rotating log file path, empty when file logging is off.
func (e EnvVars) GetLogFile() string {
	return e.v.GetString(logFileVar)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
