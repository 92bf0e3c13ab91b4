// Package file stores configuration in a TOML file, by default
// ~/.sercha-context/config.toml. Dotted keys map onto nested tables.
package file
