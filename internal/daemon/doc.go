// Package daemon runs the long-lived tagtrack service: it holds the
// single-instance lock, drives the workflow manager, and serves the HTTP API.
package daemon
