// Package campaign drives multi-channel, time-delayed campaign sequences:
// entry-trigger evaluation, per-contact step cursors with conditional
// branching, merge-tag personalization, A/B variant selection, and
// send-time optimization.
//
// The sequencer is the only writer of enrollment cursors. Step dispatch is
// made idempotent by a claim row per (enrollment, step); concurrent
// evaluations of the same step race on the claim and at most one wins.
// Delivery itself is a collaborator behind the dispatch.Dispatcher contract
// and is never awaited beyond its timeout.
package campaign
