// Copyright 2016 Aleksandr Demakin. All rights reserved.

package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registeredPIDs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shmregion_registry_pids",
			Help: "Number of processes in the registry as seen by this process.",
		},
		[]string{"registry"},
	)

	prunedPIDs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shmregion_registry_pruned_total",
			Help: "Number of dead processes removed from the registry by this process.",
		},
		[]string{"registry"},
	)

	probeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shmregion_registry_probe_errors_total",
			Help: "Number of failed liveness probes.",
		},
		[]string{"registry"},
	)

	joins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shmregion_registry_joins_total",
			Help: "Number of joins to a registry, by role.",
		},
		[]string{"registry", "role"},
	)
)

// open registry handles in this process by name.
// The gauge of a name is kept until its last handle is closed.
var (
	gaugeMu      sync.Mutex
	gaugeHandles = make(map[string]int)
)

func acquireGauge(name string) {
	gaugeMu.Lock()
	defer gaugeMu.Unlock()
	gaugeHandles[name]++
}

func releaseGauge(name string) {
	gaugeMu.Lock()
	defer gaugeMu.Unlock()
	if gaugeHandles[name]--; gaugeHandles[name] > 0 {
		return
	}
	delete(gaugeHandles, name)
	registeredPIDs.DeleteLabelValues(name)
}
