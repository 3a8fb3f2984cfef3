// Package engine implements the netreplay replay engine.
//
// The engine replays persisted traces of a time-evolving network graph and
// pushes them, in time order, onto buses that reports subscribe to.
//
// ARCHITECTURE:
//
// Single-Threaded Lockstep Loop:
// A Runner owns one Clock and a list of Generators (Readers). Each step it
// asks every generator, in registration order, to catch up to the clock:
//
//	t = MinTime
//	while t <= MaxTime {
//	    for each generator g: g.Step(t)
//	    t += Increment
//	}
//
// Reader Step:
//  1. Pull events from the trace cursor while their timestamp is <= t
//  2. Apply each event to the accumulator, then publish it on the event bus
//  3. Publish a materialized state if none was published yet or the trace's
//     MaxUpdateInterval has elapsed since the last one
//
// CRITICAL PATTERNS:
//
// Deterministic Order:
// Events arrive from the store ordered by (time, seq). Publish is synchronous
// and listeners run in subscription order. No goroutines, no wall clock.
//
// Fixed Increment:
// Increment is the smallest MaxUpdateInterval of all generators, derived
// once before the run and never changed.
//
// Fail Fast:
// The first listener error or storage error aborts the run. The Runner is
// one-shot; a failed run is not resumed.
package engine
