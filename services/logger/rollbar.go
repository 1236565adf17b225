package logsvc

import (
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/user"
)

// RollbarLogger decorates a core.Logger and reports warnings and errors to Rollbar.
type RollbarLogger struct {
	next core.Logger
}

var _ core.Logger = (*RollbarLogger)(nil) // interface compliance check

func NewRollbarLogger(next core.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)
	return &RollbarLogger{next: next}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare turns alternating keys and values into rollbar arguments:
// the message, the first error found, and every other pair as extras.
// A user.User value sets the affected person instead.
func (l *RollbarLogger) prepare(msg string, keysAndValues []interface{}) []interface{} {
	var (
		err    error
		usrSet bool
		extras = make(map[string]interface{}, len(keysAndValues)/2)
	)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = "arg" + strconv.Itoa(i)
		}
		if i+1 == len(keysAndValues) {
			extras[key] = nil
			break
		}
		switch val := keysAndValues[i+1].(type) {
		case user.User:
			if !usrSet { // only set one User
				rollbar.SetPerson(strconv.Itoa(val.ID), val.StudentID, "")
				usrSet = true
			}
		case error:
			if err == nil {
				err = val
			} else {
				extras[key] = val.Error()
			}
		default:
			extras[key] = val
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}

	args := []interface{}{msg}
	if err != nil {
		args = append(args, err)
	}
	if len(extras) > 0 {
		args = append(args, extras)
	}
	return args
}

func (l *RollbarLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.next.Debug(msg, keysAndValues...)
}

func (l *RollbarLogger) Info(msg string, keysAndValues ...interface{}) {
	l.next.Info(msg, keysAndValues...)
}

func (l *RollbarLogger) Warn(msg string, keysAndValues ...interface{}) {
	rollbar.Warning(l.prepare(msg, keysAndValues)...)
	l.next.Warn(msg, keysAndValues...)
}

func (l *RollbarLogger) Error(msg string, keysAndValues ...interface{}) {
	rollbar.Error(l.prepare(msg, keysAndValues)...)
	l.next.Error(msg, keysAndValues...)
}

func (l *RollbarLogger) Fatal(msg string, keysAndValues ...interface{}) {
	rollbar.Critical(l.prepare(msg, keysAndValues)...)
	rollbar.Close()
	l.next.Fatal(msg, keysAndValues...)
}

// Close flushes pending reports.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}
