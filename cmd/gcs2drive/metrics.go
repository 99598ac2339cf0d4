package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// metricsModule shares the default registry between the collectors and /metrics.
var metricsModule = fx.Provide(
	func() prometheus.Registerer { return prometheus.DefaultRegisterer },
	func() prometheus.Gatherer { return prometheus.DefaultGatherer },
)
