// Package flow implements the conversation state machine. Decide is a pure
// function of (session, event, authorization verdict); it never touches the
// registry itself but emits the registry operation for the dispatcher to
// execute, which keeps every transition unit-testable without a transport.
package flow
