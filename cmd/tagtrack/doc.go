// Command tagtrack runs the tag-location ingestion service and inspects its
// database.
//
// `tagtrack serve` starts the daemon: the POST /recv endpoint, the read-only
// API, and the background processor. The remaining commands open the SQLite
// store directly, so they work whether or not the daemon is running.
package main
