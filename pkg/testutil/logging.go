package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Tests run with logging discarded unless -v is passed
func init() {
	var isVerbose bool
	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			isVerbose = true
		}
	}

	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose {
		logrus.StandardLogger().Out = io.Discard
	}
}

// CaptureLogs records every entry written to the standard logger until the
// test completes
func CaptureLogs(t *testing.T) *test.Hook {
	hook := test.NewLocal(logrus.StandardLogger())
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})
	return hook
}

// FindLogEntries returns the captured entries at the level with the message
func FindLogEntries(hook *test.Hook, level logrus.Level, message string) []*logrus.Entry {
	var res []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && entry.Message == message {
			res = append(res, entry)
		}
	}
	return res
}
