// Package metrics defines the sinks that observe simulations and
// optimisations. Every sink records run summaries; optional recorder
// interfaces cover optimiser generations, finished optimisations and
// single-pass unit progress. Sinks are built from configuration through a
// factory registry and combined with NewMultiSink.
package metrics
