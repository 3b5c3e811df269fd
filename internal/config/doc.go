// Package config manages user-level settings stored at ~/.gemstrap/config.yaml
// and overridden by GEMSTRAP_* environment variables. It turns them into the
// metadata a new gem is created with.
package config
