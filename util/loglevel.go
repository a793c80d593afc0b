package util

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// ParseLogLevel maps a -loglevel value to a log.Level.  "warn" is an alias
// for error, and "trace" for debug.
func ParseLogLevel(name string) (log.Level, error) {
	switch strings.ToLower(name) {
	case "off":
		return log.Off, nil
	case "error", "warn":
		return log.Error, nil
	case "info":
		return log.Info, nil
	case "debug", "trace":
		return log.Debug, nil
	}
	return log.Off, errors.E(errors.Invalid, fmt.Sprintf("unknown log level %q", name))
}

// levelOutputter admits messages up to level, whatever the level of the
// outputter it wraps.
type levelOutputter struct {
	log.Outputter
	level log.Level
}

func (o *levelOutputter) Level() log.Level { return o.level }

func (o *levelOutputter) Output(calldepth int, level log.Level, s string) error {
	if level > o.level {
		return nil
	}
	// The wrapped outputter applies its own threshold; debug lines that
	// passed ours are handed over at info.
	if level > log.Info {
		level = log.Info
	}
	return o.Outputter.Output(calldepth+1, level, s)
}

// SetLogLevel installs a filter on the current log outputter so that
// messages up to the named level, and no others, are emitted.  Call it
// after grail.Init, which installs the outputter being filtered.  Repeated
// calls replace the previous filter.
func SetLogLevel(name string) error {
	level, err := ParseLogLevel(name)
	if err != nil {
		return err
	}
	out := log.GetOutputter()
	if f, ok := out.(*levelOutputter); ok {
		out = f.Outputter
	}
	log.SetOutputter(&levelOutputter{Outputter: out, level: level})
	return nil
}
