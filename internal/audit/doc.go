// Package audit provides the append-only audit trail recording every
// accepted action.
//
// Two append paths exist, matching the protocol's audit contract:
//
//   - Append: used for get, list, and set. A get record keeps the
//     requested item id; list and set records have any id stripped.
//   - AppendExact: used only for subscribe. It requires the complete
//     {identity, session, action, ts} tuple because the table backend
//     synthesises its technical key from identity and session.
//
// Audit persistence failures never fail the operation that triggered
// them; callers log the error and count it as a fault. The set record's
// intentional lack of an item id means a write can only be correlated
// through the broadcast event's document payload.
package audit
