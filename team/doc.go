// Package team schedules agents over a shared transcript.
//
// RoundRobin cycles a fixed, ordered list of agents one turn at a time until
// a Termination fires or the turn cap is reached. Panel asks each panelist
// exactly once, in order, feeding every panelist the contributions made so
// far. Neither scheduler retries; the first agent failure aborts the run.
package team
