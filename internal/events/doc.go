// Package events provides the event stream published by the load scheduler.
//
// Handlers subscribe to an emitter and receive one LoadEvent per settled
// attempt, per dropped task and when a run completes. This keeps progress
// displays and other observers decoupled from the scheduler internals.
//
// The primary components are:
// - LoadEvent: a single scheduler event
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
