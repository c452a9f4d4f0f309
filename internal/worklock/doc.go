// Package worklock grants exclusive ownership of a release output directory
// for the duration of one workflow run.
//
// The lock is a marker file created with O_EXCL so two processes can never
// both observe "unlocked" and proceed. Markers older than an hour are treated
// as abandoned and reclaimed. The marker only arbitrates between cooperating
// relpack invocations; it does not guard against arbitrary external writers.
package worklock
