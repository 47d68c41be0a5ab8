// Package watcher turns filesystem events into incremental build cycles.
//
// The Loop moves between three states. Idle waits for a relevant event.
// Debouncing collects paths until no new event arrived for the debounce
// window. Running hands the collected ChangeSet to the executor; events
// that arrive meanwhile are accumulated and trigger exactly one follow-up
// cycle once the run finished. Runs are never cancelled by new events.
package watcher
