// Package store persists import batches, location records, and counters in
// SQLite.
//
// Uniqueness of import content hashes and location hashes is enforced by
// unique indexes, and inserts that collide report ErrUniqueViolation so
// callers can treat them as duplicates. Hash lookups (FindImportByHash,
// LocationOwner, LatestImport) report absence as a nil result; id lookups
// (GetImport) return ErrNotFound. Status changes only apply to batches that
// are still pending, which keeps the pending to terminal transition one-way.
//
// Writes retry briefly on SQLITE_BUSY so concurrent submitters and processing
// passes serialize on the database rather than on application locks.
package store
