// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger sets the logger for region lifecycle messages.
// Teardown failures are logged as warnings, other messages are at debug level.
// Passing nil disables logging. It should be called before any region is created.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l = discard
	}
	logger = l
}
