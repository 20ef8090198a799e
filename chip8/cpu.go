/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chip8

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

const (
	MemorySize          int    = 4096
	RegisterCount       int    = 16
	KeyCount            int    = 16
	StackDepthLimit     int    = 16
	FontStartAddress    uint16 = 0x50
	ProgramStartAddress uint16 = 0x200
	CarryFlag           uint8  = 0xF

	TimerRate time.Duration = time.Second / 60  // 60hz
	ClockRate time.Duration = time.Second / 700 // 700hz

	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

// Step result flags reported to the host loop.
const (
	Sound uint8 = 1 << iota
	Redraw
)

var fontSet = []byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Processor holds the complete machine state: memory, registers, stack,
// timers, keypad and framebuffer. It is mutated only by Step and
// TickTimers, both driven synchronously by the host loop. The keypad is
// the one exception: the input collaborator writes it from the UI event
// goroutine, hence the atomic values.
type Processor struct {
	memory   [MemorySize]byte
	v        [RegisterCount]byte
	keyState [KeyCount]atomic.Bool
	display  [Area]byte
	stack    [StackDepthLimit]uint16
	sp       uint8
	pc       uint16
	i        uint16
	delay    uint8
	sound    uint8
	randByte func() byte
}

// New returns a Processor reset to its power-on state, with the font set
// resident and the program counter at the program start address.
func New() *Processor {
	var p Processor
	p.Reset()
	return &p
}

// Reset restores the power-on state. An injected random source survives
// the reset so tests can reuse one Processor across scenarios.
func (p *Processor) Reset() {
	p.memory = [MemorySize]byte{}
	p.v = [RegisterCount]byte{}
	p.display = [Area]byte{}
	p.stack = [StackDepthLimit]uint16{}
	p.sp = 0
	p.i = 0
	p.delay = 0
	p.sound = 0

	for i := range p.keyState {
		p.keyState[i].Store(false)
	}

	if p.randByte == nil {
		p.randByte = func() byte {
			return byte(rand.Uint32N(256))
		}
	}

	copy(p.memory[FontStartAddress:], fontSet)
	p.pc = ProgramStartAddress
}

// SetRandSource replaces the random byte source used by the Cxkk
// instruction. Passing nil restores the default uniform source.
func (p *Processor) SetRandSource(src func() byte) {
	p.randByte = src
	if p.randByte == nil {
		p.randByte = func() byte {
			return byte(rand.Uint32N(256))
		}
	}
}

// Load copies a program verbatim into memory at the program start
// address. The payload must fit the remaining address space.
func (p *Processor) Load(b []byte) error {
	if len(b) > MemorySize-int(ProgramStartAddress) {
		return fmt.Errorf("%w: %d bytes", ErrProgramTooLarge, len(b))
	}
	copy(p.memory[ProgramStartAddress:], b)
	return nil
}

func (p *Processor) readByte(addr uint16) (byte, error) {
	if int(addr) >= MemorySize {
		return 0, fmt.Errorf("%w: read at %03X", ErrAddressOutOfRange, addr)
	}
	return p.memory[addr], nil
}

func (p *Processor) writeByte(addr uint16, b byte) error {
	if int(addr) >= MemorySize {
		return fmt.Errorf("%w: write at %03X", ErrAddressOutOfRange, addr)
	}
	p.memory[addr] = b
	return nil
}

// ReadMemory returns the byte at addr, erroring outside 0x000-0xFFF.
func (p *Processor) ReadMemory(addr uint16) (byte, error) {
	return p.readByte(addr)
}

// Display returns the 64x32 framebuffer, one byte per pixel, row-major.
// Read-only from the renderer's perspective.
func (p *Processor) Display() []byte {
	return p.display[:]
}

// SetKey records the pressed state of one hex key. Called by the input
// collaborator; the engine only ever reads key state.
func (p *Processor) SetKey(key uint8, pressed bool) {
	p.keyState[key&0x0F].Store(pressed)
}

func (p *Processor) Register(v uint8) uint8 {
	return p.v[v&0x0F]
}

func (p *Processor) Index() uint16 {
	return p.i
}

func (p *Processor) ProgramCounter() uint16 {
	return p.pc
}

func (p *Processor) StackDepth() int {
	return int(p.sp)
}

func (p *Processor) DelayTimer() uint8 {
	return p.delay
}

func (p *Processor) SoundTimer() uint8 {
	return p.sound
}

// SoundActive reports whether the audio collaborator should be emitting
// a tone.
func (p *Processor) SoundActive() bool {
	return p.sound > 0
}

// OpcodeAt fetches the two-byte instruction word at addr. The high byte
// sits at addr, the low byte at addr+1.
func (p *Processor) OpcodeAt(addr uint16) (Opcode, error) {
	high, err := p.readByte(addr)
	if err != nil {
		return 0, err
	}
	low, err := p.readByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return Opcode(uint16(high)<<8 | uint16(low)), nil
}

// Step runs exactly one fetch-decode-execute cycle. The program counter
// is advanced past the instruction before the handler runs, so skip
// handlers add 2 and the blocking key wait subtracts 2. The returned
// flags tell the host whether the framebuffer changed and whether the
// sound timer is live.
func (p *Processor) Step() (uint8, error) {
	opcode, err := p.OpcodeAt(p.pc)
	if err != nil {
		return 0, err
	}

	p.pc += 2

	var info uint8
	if err := p.Execute(opcode, &info); err != nil {
		return 0, err
	}

	if p.sound > 0 {
		info |= Sound
	}
	return info, nil
}

// TickTimers decrements each non-zero timer by one. The host invokes it
// at a fixed 60hz cadence, independent of instruction throughput.
func (p *Processor) TickTimers() {
	if p.delay > 0 {
		p.delay--
	}
	if p.sound > 0 {
		p.sound--
	}
}
