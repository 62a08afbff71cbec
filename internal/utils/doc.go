// Package utils exposes helpers shared by the procshell commands.
//
// ConfigurationLoader layers embedded defaults, configuration files, environment variables, and flags
// through Viper. LoggerFactory builds the zap loggers, and CommandContextAccessor carries resolved
// settings through command contexts.
package utils
