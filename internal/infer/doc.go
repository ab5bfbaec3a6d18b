// Package infer orchestrates the three inference modes for reaction-order
// estimation: MCMC sampling, variational approximation, and MAP point
// estimation.
//
// Each driver does the same plumbing in the same order: load and
// log-transform the experimental data, generate the model program, fetch a
// compiled model through the cache, run the engine, and fold the raw output
// into a structured report. The drivers are synchronous and blocking; the
// only parallelism anywhere is across sampling chains, and that stays inside
// the engine.
//
// Configuration is supplied by value and defaulted per call. A run that
// does not specify a seed gets one generated and recorded on its report, so
// every run is reproducible from its report alone.
package infer
