package chip8

import (
	"math/rand"
	"os"
)

/// Display dimensions. The video surface is a flat, row-major sequence of
/// byte pixels restricted to {0,1}.
///
const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

/// Memory layout constants. The first 512 bytes are reserved for the
/// interpreter (font sprites live at 0x000); programs load at 0x200.
///
const (
	ProgramStart = 0x200
	MemorySize   = 0x1000
)

/// CHIP_8 virtual machine.
///
type CHIP_8 struct {
	/// Memory addressable by CHIP-8. The font sprites occupy the first
	/// 80 bytes; everything from ProgramStart up belongs to the program.
	///
	Memory [MemorySize]byte

	/// V are the 16 virtual registers. Each wraps at 8 bits. V[0xF] is
	/// the flag register, overwritten by arithmetic, shift and draw
	/// instructions.
	///
	V [16]byte

	/// I is the address register. Logically 12-bit; FX1E may grow it
	/// past 0xFFF and it is deliberately left unmasked (memory accesses
	/// mask instead).
	///
	I uint16

	/// PC is the program counter. All programs begin at 0x200.
	///
	PC uint16

	/// Stack holds up to 16 return addresses; SP points at the next
	/// free cell. Pushing past 16 or popping at 0 halts the machine.
	///
	Stack [16]uint16
	SP    byte

	/// The delay and sound timer registers. Each counts down one unit
	/// per executed instruction, floored at zero.
	///
	DT byte
	ST byte

	/// Video memory (64x32). One byte per pixel, 0 or 1, row-major.
	///
	Video [DisplayWidth * DisplayHeight]byte

	/// Keys hold the current state for the 16-key pad keys. The host
	/// writes them; the machine only reads.
	///
	Keys [16]bool

	/// DrawFlag is set whenever an instruction changes the video
	/// surface. The host clears it after presenting a frame.
	///
	DrawFlag bool

	/// Rand supplies the 8-bit values consumed by CXNN. Replaceable,
	/// so tests can pin the sequence.
	///
	Rand func() byte
}

/// New returns a CHIP-8 virtual machine with the font sprites loaded and
/// the program counter at 0x200.
///
func New() *CHIP_8 {
	vm := &CHIP_8{
		PC:   ProgramStart,
		Rand: func() byte { return byte(rand.Int31()) },
	}

	// copy the font sprites into low memory
	copy(vm.Memory[:], FontSprites[:])

	return vm
}

/// Load copies a ROM image into program memory. Oversized images are
/// rejected with ErrROMTooLarge before any memory is touched.
///
func (vm *CHIP_8) Load(program []byte) error {
	if len(program) > MemorySize-ProgramStart {
		return ErrROMTooLarge
	}

	copy(vm.Memory[ProgramStart:], program)

	return nil
}

/// LoadFile reads a ROM file and returns a new CHIP-8 virtual machine
/// with it loaded.
///
func LoadFile(file string) (*CHIP_8, error) {
	program, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	vm := New()

	if err := vm.Load(program); err != nil {
		return nil, err
	}

	return vm, nil
}

/// PressKey emulates a CHIP-8 key being pressed.
///
func (vm *CHIP_8) PressKey(key uint) {
	if key < 16 {
		vm.Keys[key] = true
	}
}

/// ReleaseKey emulates a CHIP-8 key being released.
///
func (vm *CHIP_8) ReleaseKey(key uint) {
	if key < 16 {
		vm.Keys[key] = false
	}
}

/// Step executes a single instruction: fetch at PC, decode, dispatch,
/// then tick both timers. A fatal condition (unknown opcode, stack
/// overflow or underflow) is returned as an error and leaves the machine
/// halted mid-program; the only recovery is a fresh machine.
///
func (vm *CHIP_8) Step() error {
	// fetch the next instruction
	inst := vm.fetch()

	// 12-bit address operand
	a := inst & 0xFFF

	// byte and nibble operands
	b := byte(inst)
	n := byte(inst & 0xF)

	// x and y register operands
	x := uint(inst >> 8 & 0xF)
	y := uint(inst >> 4 & 0xF)

	var err error

	// instruction decoding
	switch inst & 0xF000 {
	case 0x0000:
		switch inst {
		case 0x00E0:
			vm.cls()
		case 0x00EE:
			err = vm.ret()
		default:
			err = UnknownOpcodeError{inst}
		}
	case 0x1000:
		vm.jump(a)
	case 0x2000:
		err = vm.call(a)
	case 0x3000:
		vm.skipIf(x, b)
	case 0x4000:
		vm.skipIfNot(x, b)
	case 0x5000:
		if n == 0 {
			vm.skipIfXY(x, y)
		} else {
			err = UnknownOpcodeError{inst}
		}
	case 0x6000:
		vm.loadX(x, b)
	case 0x7000:
		vm.addX(x, b)
	case 0x8000:
		switch n {
		case 0x0:
			vm.loadXY(x, y)
		case 0x1:
			vm.or(x, y)
		case 0x2:
			vm.and(x, y)
		case 0x3:
			vm.xor(x, y)
		case 0x4:
			vm.addXY(x, y)
		case 0x5:
			vm.subXY(x, y)
		case 0x6:
			vm.shr(x)
		case 0x7:
			vm.subYX(x, y)
		case 0xE:
			vm.shl(x)
		default:
			err = UnknownOpcodeError{inst}
		}
	case 0x9000:
		if n == 0 {
			vm.skipIfNotXY(x, y)
		} else {
			err = UnknownOpcodeError{inst}
		}
	case 0xA000:
		vm.loadI(a)
	case 0xB000:
		vm.jumpV0(a)
	case 0xC000:
		vm.rnd(x, b)
	case 0xD000:
		vm.drw(x, y, n)
	case 0xE000:
		switch b {
		case 0x9E:
			vm.skipIfPressed(x)
		case 0xA1:
			vm.skipIfNotPressed(x)
		default:
			err = UnknownOpcodeError{inst}
		}
	case 0xF000:
		switch b {
		case 0x07:
			vm.loadXDT(x)
		case 0x0A:
			vm.loadXK(x)
		case 0x15:
			vm.loadDTX(x)
		case 0x18:
			vm.loadSTX(x)
		case 0x1E:
			vm.addIX(x)
		case 0x29:
			vm.loadF(x)
		case 0x33:
			vm.loadB(x)
		case 0x55:
			vm.saveRegs(x)
		case 0x65:
			vm.loadRegs(x)
		default:
			err = UnknownOpcodeError{inst}
		}
	}

	if err != nil {
		return err
	}

	// decay the timers
	vm.tick()

	return nil
}

/// Fetch the next 16-bit instruction to execute.
///
func (vm *CHIP_8) fetch() uint16 {
	i := vm.PC

	// advance the program counter
	vm.PC += 2

	// combine two bytes big-endian into the 16-bit instruction
	return uint16(vm.Memory[i&0xFFF])<<8 | uint16(vm.Memory[(i+1)&0xFFF])
}

/// Decrement the delay and sound timers, floored at zero.
///
func (vm *CHIP_8) tick() {
	if vm.DT > 0 {
		vm.DT--
	}
	if vm.ST > 0 {
		vm.ST--
	}
}

/// Clear the video display memory.
///
func (vm *CHIP_8) cls() {
	vm.Video = [DisplayWidth * DisplayHeight]byte{}
	vm.DrawFlag = true
}

/// call a subroutine at address.
///
func (vm *CHIP_8) call(address uint16) error {
	if int(vm.SP) == len(vm.Stack) {
		return ErrStackOverflow
	}

	// push the return address
	vm.Stack[vm.SP] = vm.PC
	vm.SP++

	// jump to address
	vm.PC = address

	return nil
}

/// return from subroutine.
///
func (vm *CHIP_8) ret() error {
	if vm.SP == 0 {
		return ErrStackUnderflow
	}

	// pop the return address
	vm.SP--
	vm.PC = vm.Stack[vm.SP]

	return nil
}

/// jump to address.
///
func (vm *CHIP_8) jump(address uint16) {
	vm.PC = address
}

/// jump to address + v0.
///
func (vm *CHIP_8) jumpV0(address uint16) {
	vm.PC = address + uint16(vm.V[0])
}

/// skip next instruction if vx == n.
///
func (vm *CHIP_8) skipIf(x uint, b byte) {
	if vm.V[x] == b {
		vm.PC += 2
	}
}

/// skip next instruction if vx != n.
///
func (vm *CHIP_8) skipIfNot(x uint, b byte) {
	if vm.V[x] != b {
		vm.PC += 2
	}
}

/// skip next instruction if vx == vy.
///
func (vm *CHIP_8) skipIfXY(x, y uint) {
	if vm.V[x] == vm.V[y] {
		vm.PC += 2
	}
}

/// skip next instruction if vx != vy.
///
func (vm *CHIP_8) skipIfNotXY(x, y uint) {
	if vm.V[x] != vm.V[y] {
		vm.PC += 2
	}
}

/// skip next instruction if key(vx) is pressed.
///
func (vm *CHIP_8) skipIfPressed(x uint) {
	if vm.Keys[vm.V[x]&0xF] {
		vm.PC += 2
	}
}

/// skip next instruction if key(vx) is not pressed.
///
func (vm *CHIP_8) skipIfNotPressed(x uint) {
	if !vm.Keys[vm.V[x]&0xF] {
		vm.PC += 2
	}
}

/// load n into vx.
///
func (vm *CHIP_8) loadX(x uint, b byte) {
	vm.V[x] = b
}

/// load vy into vx.
///
func (vm *CHIP_8) loadXY(x, y uint) {
	vm.V[x] = vm.V[y]
}

/// load delay timer into vx.
///
func (vm *CHIP_8) loadXDT(x uint) {
	vm.V[x] = vm.DT
}

/// load vx into delay timer.
///
func (vm *CHIP_8) loadDTX(x uint) {
	vm.DT = vm.V[x]
}

/// load vx into sound timer.
///
func (vm *CHIP_8) loadSTX(x uint) {
	vm.ST = vm.V[x]
}

/// load vx with the pressed key, blocking until one is down. Blocking
/// means rewinding the program counter so the same instruction executes
/// again next step. When several keys are down the highest index wins.
///
func (vm *CHIP_8) loadXK(x uint) {
	pressed := -1

	for i, down := range vm.Keys {
		if down {
			pressed = i
		}
	}

	if pressed < 0 {
		vm.PC -= 2
		return
	}

	vm.V[x] = byte(pressed)
}

/// load address register.
///
func (vm *CHIP_8) loadI(address uint16) {
	vm.I = address
}

/// load memory at I with the BCD digits of vx.
///
func (vm *CHIP_8) loadB(x uint) {
	vm.Memory[vm.I&0xFFF] = vm.V[x] / 100
	vm.Memory[(vm.I+1)&0xFFF] = vm.V[x] / 10 % 10
	vm.Memory[(vm.I+2)&0xFFF] = vm.V[x] % 10
}

/// load font sprite address for vx into I.
///
func (vm *CHIP_8) loadF(x uint) {
	vm.I = uint16(vm.V[x]) * 5
}

/// or vx with vy into vx.
///
func (vm *CHIP_8) or(x, y uint) {
	vm.V[x] |= vm.V[y]
}

/// and vx with vy into vx.
///
func (vm *CHIP_8) and(x, y uint) {
	vm.V[x] &= vm.V[y]
}

/// xor vx with vy into vx.
///
func (vm *CHIP_8) xor(x, y uint) {
	vm.V[x] ^= vm.V[y]
}

/// shl vx 1 bit, set carry to MSB of vx before shift.
///
func (vm *CHIP_8) shl(x uint) {
	vm.V[0xF] = vm.V[x] >> 7
	vm.V[x] <<= 1
}

/// shr vx 1 bit, set carry to LSB of vx before shift.
///
func (vm *CHIP_8) shr(x uint) {
	vm.V[0xF] = vm.V[x] & 1
	vm.V[x] >>= 1
}

/// add n to vx. Wraps at 8 bits; no flag effect.
///
func (vm *CHIP_8) addX(x uint, b byte) {
	vm.V[x] += b
}

/// add vy to vx, set carry on overflow past 8 bits.
///
func (vm *CHIP_8) addXY(x, y uint) {
	sum := uint16(vm.V[x]) + uint16(vm.V[y])

	if sum > 0xFF {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}

	vm.V[x] = byte(sum)
}

/// add vx to i. Carry set when I leaves the 12-bit address space; I is
/// not masked back down.
///
func (vm *CHIP_8) addIX(x uint) {
	sum := uint32(vm.I) + uint32(vm.V[x])

	if sum > 0xFFF {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}

	vm.I = uint16(sum)
}

/// subtract vy from vx, set carry if no borrow.
///
func (vm *CHIP_8) subXY(x, y uint) {
	borrow := vm.V[x] < vm.V[y]
	vm.V[x] -= vm.V[y]

	if borrow {
		vm.V[0xF] = 0
	} else {
		vm.V[0xF] = 1
	}
}

/// subtract vx from vy and store in vx, set carry if no borrow.
///
func (vm *CHIP_8) subYX(x, y uint) {
	borrow := vm.V[y] < vm.V[x]
	vm.V[x] = vm.V[y] - vm.V[x]

	if borrow {
		vm.V[0xF] = 0
	} else {
		vm.V[0xF] = 1
	}
}

/// load a random number & n into vx.
///
func (vm *CHIP_8) rnd(x uint, b byte) {
	vm.V[x] = vm.Rand() & b
}

/// draw an n-row sprite at I to video memory at vx, vy. Pixels are XORed
/// onto the surface; any pixel turned off sets the carry. Pixels falling
/// outside the frame are dropped, not wrapped.
///
func (vm *CHIP_8) drw(x, y uint, n byte) {
	px := uint(vm.V[x])
	py := uint(vm.V[y])

	vm.V[0xF] = 0

	for row := uint(0); row < uint(n); row++ {
		sy := py + row

		// clip rows below the frame
		if sy >= DisplayHeight {
			break
		}

		sprite := vm.Memory[(uint(vm.I)+row)&0xFFF]

		for bit := uint(0); bit < 8; bit++ {
			if sprite&(0x80>>bit) == 0 {
				continue
			}

			sx := px + bit

			// clip columns past the right edge
			if sx >= DisplayWidth {
				continue
			}

			p := &vm.Video[sy*DisplayWidth+sx]

			// collision if a set pixel is turned off
			if *p != 0 {
				vm.V[0xF] = 1
			}

			*p ^= 1
		}
	}

	vm.DrawFlag = true
}

/// save registers v0..vx to memory at I, then advance I past them.
///
func (vm *CHIP_8) saveRegs(x uint) {
	for i := uint(0); i <= x; i++ {
		vm.Memory[(uint(vm.I)+i)&0xFFF] = vm.V[i]
	}

	vm.I += uint16(x) + 1
}

/// load registers v0..vx from memory at I, then advance I past them.
///
func (vm *CHIP_8) loadRegs(x uint) {
	for i := uint(0); i <= x; i++ {
		vm.V[i] = vm.Memory[(uint(vm.I)+i)&0xFFF]
	}

	vm.I += uint16(x) + 1
}
