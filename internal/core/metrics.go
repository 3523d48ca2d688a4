package core

import (
	"chem-datapackager/internal/ports"
	"chem-datapackager/internal/types"
)

type NoopMetrics struct{}

func (NoopMetrics) RecordIngested()                    {}
func (NoopMetrics) RecordFailed()                      {}
func (NoopMetrics) ConflictRetry(_ types.ConflictKind) {}
func (NoopMetrics) MoleculeCreated()                   {}
func (NoopMetrics) DepictionRendered()                 {}

func metricsOrNoop(metrics ports.MetricsPort) ports.MetricsPort {
	if metrics == nil {
		return NoopMetrics{}
	}
	return metrics
}

var _ ports.MetricsPort = NoopMetrics{}
