// Package cgt provides the core logic for a FIFO capital-gains tax ledger
// for listed securities. It is designed to be local-first and auditable:
// every figure it reports can be traced back to the recorded transactions.
//
// The core functionalities include:
//   - Lot Ledger: recording buys and sells in an immutable, commit-ordered
//     record, with acquisition and disposal dates taken at trade settlement
//     (trade date plus two business days) and FIFO lot consumption.
//   - Tax Rate Engine: a pure rate lookup over a static table with a regime
//     cutover date, a flat post-cutover rate, and legacy holding-period
//     buckets parameterized by filer status, plus per-sale tax assessment
//     with per-lot loss clamping.
//   - Corporate Action Processor: bonus and rights issues applied to lot
//     queues with an append-only audit log, reversible while no later sale
//     has consumed the affected lots.
//   - Scenario Analysis: hypothetical sales and a ranking of tax-saving
//     opportunities from deferring sales past holding-period milestones,
//     computed on isolated state that never touches the committed ledger.
//   - Data Persistence: encoding and decoding the ledger to and from a
//     human-readable, version-controllable JSONL format, and importing the
//     legacy single-document backup format.
//
// This package serves as the foundational logic for the `cgtl` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package cgt
