// Package ir provides the data model shared by every netreplay package.
//
// It defines the three trace domains (presence, links, groups), their delta
// events and materialized snapshots, the accumulators that fold events into
// state, and the read boundary (Source and Cursor) through which the engine
// consumes persisted traces.
//
// This package imports nothing internal. All other internal packages import
// ir, which keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Time is an integer tick count; wall clocks never enter the model
//   - Snapshots are always sorted so equal states serialize identically
//   - All JSON tags use snake_case
package ir
