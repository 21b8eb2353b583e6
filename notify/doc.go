// Package notify delivers the outbound mail produced by signup and password
// reset flows.
//
// Senders are pluggable. LogSender writes messages to zap and is meant for
// development; Queue wraps any Sender so delivery happens off the request path
// with a bounded buffer.
package notify
