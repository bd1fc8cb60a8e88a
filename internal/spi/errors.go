package spi

import "errors"

// Sentinel errors for the SPI cycle engine and command surface.
var (
	// ErrAccess is returned when the Access Error Log bit (H_AEL) was
	// observed set on a completed cycle.
	ErrAccess = errors.New("spi: access error")

	// ErrCycle is returned when the Flash Cycle Error bit (FCERR) was
	// observed during poll-complete.
	ErrCycle = errors.New("spi: cycle error")

	// ErrRegister is returned when a register held a value outside its
	// documented encoding, such as a reserved capacity code.
	ErrRegister = errors.New("spi: register value out of range")
)
