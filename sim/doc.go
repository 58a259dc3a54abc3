// Package sim provides the virtual-clock engine and the stage primitives the
// incident model is assembled from.
//
// # Reading Guide
//
//   - simulator.go: timer heap, After/At/Every and the drain-until-idle loop
//   - queue.go: ServiceQueue, the admission-controlled FIFO with a worker limit
//   - retry.go: Retry, the immediate-resubmission decorator
//   - context.go: Context, the per-run bundle of clock, randomness and statistics
//
// # Architecture
//
// Domain stages live in sub-packages:
//   - sim/incident/: Client, BuildService, Database, model wiring and the run driver
//   - sim/workload/: arrival processes and the event generator
//   - sim/harness/: distribution of a parameter sweep over worker goroutines
//
// Every stage implements Stage. A stage reports each event's Outcome exactly
// once through the done callback, either synchronously (admission rejection)
// or later in virtual time.
//
// Nothing in this package is safe for concurrent use. Parallelism comes from
// running independent Contexts on separate goroutines.
package sim
