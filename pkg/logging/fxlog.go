package logging

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// UseLoggingInterface routes fx container events to the Interface provided
// inside the same container. Wiring chatter goes to debug, lifecycle
// results to info or error.
var UseLoggingInterface fx.Option = fx.WithLogger(
	func(logger Interface) fxevent.Logger {
		return &fxLogger{log: logger.WithField("component", "fx")}
	},
)

type fxLogger struct{ log Interface }

// LogEvent implements fxevent.Logger.
func (f *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		reportResult(f.log.WithField("callee", e.FunctionName).WithField("runtime", e.Runtime.String()), "OnStart hook", e.Err)
	case *fxevent.OnStopExecuted:
		reportResult(f.log.WithField("callee", e.FunctionName).WithField("runtime", e.Runtime.String()), "OnStop hook", e.Err)
	case *fxevent.Provided:
		for _, t := range e.OutputTypeNames {
			f.log.WithField("constructor", e.ConstructorName).WithField("type", t).Debug("Provided")
		}
		if e.Err != nil {
			f.log.WithError(e.Err).Error("error encountered while applying options")
		}
	case *fxevent.Invoking:
		f.log.WithField("function", e.FunctionName).Debug("Invoking")
	case *fxevent.Invoked:
		if e.Err != nil {
			f.log.WithField("function", e.FunctionName).WithField("stack", e.Trace).WithError(e.Err).Error("Invoke failed")
		}
	case *fxevent.Stopping:
		f.log.WithField("signal", strings.ToUpper(e.Signal.String())).Info("Stopping: received signal")
	case *fxevent.Stopped:
		reportResult(f.log, "App stop", e.Err)
	case *fxevent.RollingBack:
		reportResult(f.log, "Start failed, rolling back", e.StartErr)
	case *fxevent.Started:
		reportResult(f.log, "App start", e.Err)
	case *fxevent.LoggerInitialized:
		reportResult(f.log.WithField("function", e.ConstructorName), "Custom logger initialization", e.Err)
	}
}

func reportResult(log Interface, msg string, err error) {
	if err != nil {
		log.WithError(err).Error(msg + " failed")
		return
	}
	log.Debug(msg + " succeeded")
}
