// Package workflow drives the processor for newly submitted batches.
//
// The Manager runs one loop that handles triggered import ids as soon as they
// arrive and periodically sweeps the store for pending batches, so a trigger
// lost to a restart or a full buffer is still processed. Every pass gets a
// correlation id for its log lines and increments the persistent
// processor_runs counter.
package workflow
