// Package autoload configures the global logger from the environment
// as a side effect of being imported.
package autoload

import (
	configx "github.com/svergara/concierge/pkg/config"
	logx "github.com/svergara/concierge/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOGGER"))
}
