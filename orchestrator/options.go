package orchestrator

import "github.com/ottojo/ros2-def/orchestrator/store"

// Option configures optional Orchestrator behavior. Functional options keep
// New's required parameters (the config, the publisher, the emitter)
// explicit while letting callers opt into metrics, a timer integration, or a
// durable log without an ever-growing constructor signature.
//
// Example:
//
//	o := orchestrator.New(cfg, publisher, nil,
//	    orchestrator.WithTimerTrigger(myTimers),
//	    orchestrator.WithMetrics(orchestrator.NewMetrics(prometheus.DefaultRegisterer)),
//	)
type Option func(*orchestratorConfig)

type orchestratorConfig struct {
	timers  TimerTrigger
	metrics *Metrics
	log     store.Log
	runID   string
}

// WithTimerTrigger supplies the hook invoked when a TimerAction becomes
// RUNNING. Omit it for deployments whose node models declare no TimerInput
// causes.
func WithTimerTrigger(t TimerTrigger) Option {
	return func(cfg *orchestratorConfig) {
		cfg.timers = t
	}
}

// WithMetrics attaches a Metrics collector, built with NewMetrics, to the
// Orchestrator. Scheduling, timer rejection, unmatched completions, and
// reconfigurations are recorded against it as they occur.
func WithMetrics(m *Metrics) Option {
	return func(cfg *orchestratorConfig) {
		cfg.metrics = m
	}
}

// WithLog attaches a durable store.Log to the Orchestrator, recording every
// fan-out publish the scheduler performs and every reconfiguration the
// reconfigurer applies under runID. Omit it for deployments that don't need
// an audit trail; the orchestrator runs identically either way since the log
// never feeds back into scheduling decisions.
func WithLog(l store.Log, runID string) Option {
	return func(cfg *orchestratorConfig) {
		cfg.log = l
		cfg.runID = runID
	}
}
