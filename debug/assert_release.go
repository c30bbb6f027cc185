//go:build !debug

// Package debug provides assertions that can be enabled with the debug build
// tag or will otherwise compile to no-ops.
//
// The heap accounting done by the os package is an example: it is only
// maintained when Enabled is set, matching the SDK's split into debug and
// release libraries.
package debug

// Guard assertions that need extra bookkeeping with `if debug.Enabled{...}`,
// otherwise they can't be removed in release builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}
