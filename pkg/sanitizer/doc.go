// Package sanitizer normalizes user supplied booking and route input before
// validation and storage.
//
// Every function is idempotent and never fails: input that cannot be
// normalized comes back empty (phones) or as trimmed text, and validation
// decides whether that is acceptable.
package sanitizer
