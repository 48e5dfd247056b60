// Package config loads and validates scanhub configuration from TOML.
//
// Load searches the explicit path, then ~/.config/scanhub/config.toml, then
// ./scanhub.toml, falling back to defaults when no file exists. All path
// fields are expanded (~ and relative forms) and normalized before
// validation. CreateSample writes the embedded sample config for `scanhub
// config init`.
package config
