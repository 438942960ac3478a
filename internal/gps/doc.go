package gps

// Package gps drives a u-blox receiver for one job: obtaining UTC from a ZDA
// sentence, then putting the module back into backup mode.
//
// It is intentionally small and geared toward a battery clock:
// - Force the module to emit only $GPZDA (PUBX,40 rate commands)
// - Assemble lines from a byte stream fed by a receive goroutine
// - Classify the captured line as Acquired, NoFix or Malformed
// - Sleep/wake/power-cycle the module with UBX commands
