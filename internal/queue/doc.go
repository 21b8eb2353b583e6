// Package queue implements a bounded asynchronous dispatcher used for audit
// events and outbound notifications.
//
// # Architecture boundaries
//
// The dispatcher owns buffering and delivery order only. It does not decide
// what to enqueue, and it never retries a failed handler.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Block the caller when DropIfFull is set.
package queue
