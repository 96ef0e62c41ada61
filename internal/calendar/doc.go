// Package calendar computes meeting availability and books follow-up
// meetings without double-booking. Slot generation is pure; the conflict
// check lives in the event store so the overlap-check-then-insert is
// atomic, and a per-calendar distributed lock serializes concurrent
// booking attempts on top of it.
package calendar
