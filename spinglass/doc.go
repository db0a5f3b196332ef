// Package spinglass generates random Ising spin-glass problems on a Chimera
// intersection graph and compares the energy distributions two QPU
// generations return for them.
//
// # Reading Order
//
//   - rng.go: per-subsystem seeded random streams
//   - weights.go: weight distributions and precision
//   - anneal.go: anneal protocol and shared time ranges
//   - problem.go: problem generation and relabelling
//   - samples.go: sample sets returned by a solver
//   - stats.go: summaries, histograms and comparison results
//
// Topologies and placements live in the topology sub-package; the compare
// sub-package runs matched submissions against two systems.
package spinglass
