// Package task schedules file loads under a concurrency cap.
//
// A Scheduler takes an ordered list of task ids, runs at most Concurrency of
// them at a time through an Executor, races every attempt against a fixed
// timeout and requeues failed or timed out tasks at the tail of the queue
// until their retry counter exceeds the ceiling. Observers read snapshots of
// the run (state, progress, attempt log) or subscribe to the event stream.
package task
