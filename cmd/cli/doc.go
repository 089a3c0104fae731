// Package cli constructs the tfs-merge command-line interface. It wires the
// merge command into a Cobra root command, loads configuration through Viper,
// builds the zap loggers, and writes default configuration files for --init.
package cli
