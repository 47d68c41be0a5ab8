// Package reload fans build results out to browsers and tools.
//
// A Hub turns a build report into one Notification per task that ran and
// delivers it to every Sink: a socket.io server (the browser-sync style
// channel), a LiveReload websocket endpoint and in-process subscribers.
// Delivery never blocks the watch loop; slow subscribers drop messages.
package reload
