// Package notify holds transient user-facing messages.
//
// Each pushed notification removes itself after a fixed display duration
// unless it is dismissed first. Front ends render the queue either by
// polling List or by subscribing to push/remove events.
package notify
