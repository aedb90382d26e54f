// Package shared holds code used across avdeck packages that belongs to no
// single layer.
//
// The testutil subpackage provides a buffered slog handler for log
// assertions and fixture writers for workbooks and delimited files built in
// t.TempDir().
package shared
