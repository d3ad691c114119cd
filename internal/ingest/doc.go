// Package ingest accepts submitted batches and turns them into pending
// import records.
//
// The Gatekeeper fingerprints the submitted content, answers duplicates with
// the original batch, and persists new content as a pending batch before
// firing the processing trigger. DecodeContent is the single place where a
// stored or submitted payload is classified as structured JSON or as JSON
// text that still needs parsing.
package ingest
