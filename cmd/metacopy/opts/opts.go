package opts

import (
	"github.com/walteh/metacopy/pkg/config"
)

// RootOpts contains shared options used by all commands. It is filled in
// before any subcommand runs. The console logger travels in the command
// context.
type RootOpts struct {
	Config *config.Config
	Debug  bool
}
