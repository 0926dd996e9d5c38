// Copyright 2016 Aleksandr Demakin. All rights reserved.

// pidreg keeps a registry of alive processes in shared memory.
// Run several instances to see them find each other.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

// CommandHandler runs a command, if it is the one it handles.
type CommandHandler func(command string) bool

var (
	app = kingpin.New("pidreg", "A registry of alive processes in shared memory.")

	verboseFlag = app.Flag("verbose", "Enable debug logging.").Short('v').
			Default("false").Bool()

	commandHandlers []CommandHandler
)

func kingpinFatalIfError(err error, format string, args ...interface{}) {
	if err != nil {
		logrus.WithError(err).Errorf(format, args...)
		os.Exit(1)
	}
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verboseFlag {
		logrus.SetLevel(logrus.DebugLevel)
	}

	for _, handler := range commandHandlers {
		if handler(command) {
			return
		}
	}
	kingpin.Fatalf("unknown command %q", command)
}
