// Package config resolves the forum deployment document from the process
// environment and loads the runtime settings of the discuss-config service
// from multiple sources (settings file, environment variables, CLI flags)
// with precedence: CLI flags > settings file > Environment variables > Defaults.
package config
