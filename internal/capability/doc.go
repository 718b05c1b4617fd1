// Package capability grants exclusive read/write access to a user-chosen
// backing file.
//
// A Capability can only be obtained through Broker.Acquire, which always goes
// through a Picker and therefore through an explicit user choice. The
// capability itself cannot be stored: the Broker only persists a boolean
// marker recording that a grant happened in some earlier session, so the UI
// can ask the user to pick the same file again.
//
// # Lifetime
//
// A Capability is owned by exactly one session. It is valid from Acquire until
// Release. Reads and writes through it are serialized: a second operation that
// starts while one is in flight fails with ErrBusy instead of waiting.
//
// Nothing coordinates separate sessions or processes holding capabilities to
// the same physical file. Whole-file writes from two of them can race and the
// last rename wins.
package capability
