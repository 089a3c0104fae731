// Package utils exposes reusable helpers consumed by the CLI entrypoint.
//
// It houses ConfigurationLoader, ConfigurationInitializer and LoggerFactory,
// which integrate Viper, environment variables, YAML and zap logging.
package utils
