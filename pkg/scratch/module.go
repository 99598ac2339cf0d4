package scratch

import (
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

var fs = afero.NewOsFs()

// Module makes the operating system filesystem available as afero.Fs.
var Module fx.Option = fx.Provide(
	func() afero.Fs { return fs },
)
