// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nxgtw/go-shmregion/registry"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	runCommand = app.Command("run", "Join the registry and watch other processes.")

	runName = runCommand.Flag("name", "Name of the shared memory region.").
		Envar("PIDREG_NAME").Default(registry.DefaultName).String()

	runInterval = runCommand.Flag("interval", "Report and prune interval.").
			Envar("PIDREG_INTERVAL").Default("1s").Duration()

	runIterations = runCommand.Flag("iterations", "Stop after this many reports, 0 runs until interrupted.").
			Default("0").Int()

	runMetrics = runCommand.Flag("metrics", "Serve prometheus metrics on this address.").
			Envar("PIDREG_METRICS").String()
)

// formatSnapshot returns a report line of the process with the given pid.
func formatSnapshot(pid int32, s registry.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Process %d sees PIDs: ", pid)
	for _, p := range s.PIDs {
		fmt.Fprintf(&b, "%d ", p)
	}
	fmt.Fprintf(&b, "(Total: %d)", s.Count)
	return b.String()
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).WithField("addr", addr).Error("metrics server failed")
		}
	}()
	logrus.WithField("addr", addr).Info("serving metrics")
	return server
}

func doRun() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg, err := registry.Join(registry.Config{Name: *runName})
	if err != nil {
		return err
	}
	defer reg.Close()

	pid := int32(os.Getpid())
	if _, err = reg.Register(pid); err != nil {
		return err
	}
	defer reg.Unregister(pid)
	logrus.WithFields(logrus.Fields{
		"name":  reg.Name(),
		"pid":   pid,
		"owner": reg.Owner(),
	}).Info("registered in the registry")

	if len(*runMetrics) > 0 {
		server := startMetricsServer(*runMetrics)
		defer server.Close()
	}

	var reports int
	err = reg.Run(ctx, *runInterval, func(s registry.Snapshot) {
		fmt.Println(formatSnapshot(pid, s))
		reports++
		if *runIterations > 0 && reports >= *runIterations {
			cancel()
		}
	})
	if errors.Is(err, context.Canceled) {
		logrus.WithField("pid", pid).Info("leaving the registry")
		return nil
	}
	return err
}

func init() {
	commandHandlers = append(commandHandlers, func(command string) bool {
		switch command {
		case runCommand.FullCommand():
			kingpinFatalIfError(doRun(), "run")
		default:
			return false
		}
		return true
	})
}
