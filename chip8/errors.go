package chip8

import (
	"errors"
	"fmt"
)

/// Recoverable load errors. The loader fails before touching memory, so
/// the machine is unchanged when one of these is returned.
///
var ErrROMTooLarge = errors.New("ROM too large to fit in memory")

/// Fatal execution errors. Once Step returns one of these the program is
/// malformed and the only recovery is a fresh machine.
///
var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
)

/// UnknownOpcodeError is returned by Step when the fetched instruction
/// matches no known pattern.
///
type UnknownOpcodeError struct {
	Opcode uint16
}

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode: %04X", e.Opcode)
}
