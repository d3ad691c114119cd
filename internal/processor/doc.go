// Package processor expands a pending import batch into location records and
// settles the batch on one terminal status.
//
// Process checks the batch status before doing anything else, so running it
// again for a finished batch is a no-op. Item-level failures are counted and
// never abort the batch; the terminal status and counts are written once
// through the store's pending-only update.
package processor
