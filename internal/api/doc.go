// Package api exposes the HTTP boundary: the POST /recv ingestion endpoint and
// the read-only views over imports, tags, and workflow status.
//
// Handlers are gin handlers built by NewRouter. Transport DTOs live in
// types.go and are produced by the converters in convert.go so the store and
// workflow types never leak onto the wire.
package api
