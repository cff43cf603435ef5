// Package domain models the geocoding bridge: the address records a
// geocoding backend hands back, the flattened records returned to callers,
// and the rules that turn one into the other.
//
// # Address Records
//
// A backend returns [NativeAddress] values. They mirror the shape of a
// platform address object: an ordered list of formatted address lines plus
// a set of named, individually optional attributes (locality, admin area,
// postal code, country, ...). Every attribute may be missing.
//
// [Resolve] flattens a NativeAddress into a [ResolvedAddress]:
//
//	coordinates   present only when the native record carries a location
//	addressLine   all non-blank lines, trimmed, joined with ", "
//	addressLine1  line 0 with postal code, country name and country code
//	              tokens removed (see below)
//	other fields  copied as-is, null when missing
//
// # First Line Filtering
//
// Line 0 is split on ",". Each token is trimmed and dropped when it equals
// the trimmed postal code, country name or country code of the same record.
// The comparison is exact and case-sensitive; a missing field compares as
// the empty string, so empty tokens are dropped whenever any of the three
// fields is missing. Retained tokens are joined with ",":
//
//	"123 Main St, Springfield, 62704, USA"  postal "62704", country "USA"
//	→ "123 Main St,Springfield"
//
// A record with no lines, or whose first line is made entirely of filtered
// tokens, yields "".
//
// # Limits
//
// Every lookup asks the backend for at most [MaxResults] records.
package domain
