// Package infer provides streaming per-column data-type inference for
// tabular datasets.
//
// This package is the heart of the system, containing all inference and
// reconciliation logic independent of any transport or storage layer. It can
// be driven by CLI tools, background tasks, or tests without modification.
//
// # Candidate Types
//
// Every column is evaluated against all registered candidate types
// simultaneously. Conformance failures are counted as exceptions rather than
// aborting the scan, so a single bad cell never loses the rest of the
// column's signal. Candidates are registered at init time via [Register] and
// the registry is read-only afterwards.
//
// # Streaming Scans
//
// [Engine.Infer] consumes a [RowSource] in bounded batches with
// O(batch_size) memory usage regardless of dataset size. Columns are
// accumulated independently and in parallel across a bounded worker pool;
// per-column batch order always equals arrival order. Scans are
// cooperatively cancellable between batches and a cancelled scan yields a
// valid partial [DatasetInference].
//
// # Exceptions
//
// Non-conforming cells are recorded in an [ExceptionLedger], sharded by
// column. Samples are bounded ("first K observed") while totals stay exact.
//
// # Reconciliation
//
// [Reconcile] overlays user-preferred types onto an inference result. A
// preference is honored only while its exception count stays within the
// user's tolerance threshold; otherwise the automated best fit applies and
// the decision carries a warning marker.
package infer
