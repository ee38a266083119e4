package logging

import "github.com/juju/loggo"

// Logger is the module-wide logger type, a thin wrapper around a
// loggo.Logger so callers never import loggo directly.
type Logger struct {
	loggo.Logger
}

// New returns a named logger below the "nimbus" root, so log levels
// can be tuned per package through loggo's config string.
func New(name string) Logger {
	return Logger{loggo.GetLogger("nimbus." + name)}
}

// ConfigureLevels applies a loggo config string, e.g.
// "nimbus=DEBUG;nimbus.api=TRACE". Empty specs are ignored.
func ConfigureLevels(spec string) error {
	if spec == "" {
		return nil
	}
	return loggo.ConfigureLoggers(spec)
}
