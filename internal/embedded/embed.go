// Package embedded carries the default rule set compiled into the
// binary, so an extraction can run without any external configuration.
package embedded

import (
	"embed"
)

// FS embeds the default rule set at build time.
//
//go:embed rules.yaml
var FS embed.FS
