// Package preflight runs environment checks before the daemon starts and for
// the status command: directory access, free disk space, database
// reachability, and the optional ntfy and Redis endpoints.
package preflight
