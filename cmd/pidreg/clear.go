// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"github.com/nxgtw/go-shmregion"
	"github.com/nxgtw/go-shmregion/registry"

	"github.com/sirupsen/logrus"
)

var (
	clearCommand = app.Command("clear", "Remove a registry left by a crashed owner.")

	clearName = clearCommand.Flag("name", "Name of the shared memory region.").
			Envar("PIDREG_NAME").Default(registry.DefaultName).String()
)

func doClear() error {
	if err := shmregion.Remove(*clearName); err != nil {
		return err
	}
	logrus.WithField("name", *clearName).Info("shared memory removed")
	return nil
}

func init() {
	commandHandlers = append(commandHandlers, func(command string) bool {
		switch command {
		case clearCommand.FullCommand():
			kingpinFatalIfError(doClear(), "clear")
		default:
			return false
		}
		return true
	})
}
