// Package gps runs the receive pipeline: raw chunks from a source are framed,
// optionally checksum-gated and decoded into one running nmea.Fix. Each
// update refreshes a snapshot for the web UI and metrics, and fixes that pass
// the movement/interval gate are handed to the publish sinks.
package gps
