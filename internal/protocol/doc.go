// Package protocol defines the wire message types and request validation
// rules for the docstore TCP protocol.
//
// A request is a single JSON object:
//
//	{"UUID": "a1b2c3d4e5f6", "ACTION": "set", "ID": "X1", "DATA": {"nombre": "Foo"}}
//
// UUID is a 12-character lowercase hexadecimal client identity. ACTION is
// one of subscribe, get, list, set. ID and DATA are required or ignored
// per action; for get and set the id may also travel inside DATA as
// "id" or "ID".
//
// Validation is centralised in Request.Validate, which checks fields in a
// fixed order (identity, action, per-action requirements) and classifies
// every failure as a ValidationError. A request that fails validation has
// no side effects anywhere in the system.
//
// This package is pure: no I/O, no clock, no logging.
package protocol
