// Package engine is the boundary to the external Bayesian inference engine.
//
// Everything numerically hard lives on the far side of this boundary: the
// NUTS sampler, the variational optimizer, and the penalized MAP optimizer
// are the engine's, not ours. This package only compiles model programs,
// shells out to them with the right argument lists, and parses the CSV
// output back into per-parameter draw columns.
//
// Engine and CompiledModel are interfaces so the orchestration layer and its
// tests can run against Fake, a deterministic in-memory double. CmdStan is
// the production implementation.
//
// Calls are blocking and expose no timeout of their own; cancellation is
// whatever the caller's context provides.
package engine
