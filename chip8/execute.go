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

import "fmt"

// Execute dispatches one decoded opcode to its handler. The program
// counter has already been advanced past the instruction. Opcodes that
// match no known instruction are a decode error, not a no-op.
func (p *Processor) Execute(op Opcode, info *uint8) error {
	switch op.kind() {
	case 0x0:
		switch uint16(op) {
		case 0x00E0:
			p.clearScreen(info)
		case 0x00EE:
			return p.returnFromSubroutine()
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
	case 0x1:
		p.jumpToLocation(op.nnn())
	case 0x2:
		return p.callSubroutine(op.nnn())
	case 0x3:
		p.stepIfXEqualsNN(op.x(), op.nn())
	case 0x4:
		p.stepIfXNotEqualsNN(op.x(), op.nn())
	case 0x5:
		if op.n() != 0x0 {
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
		p.stepIfXEqualsY(op.x(), op.y())
	case 0x6:
		p.setXToNN(op.x(), op.nn())
	case 0x7:
		p.addNNToX(op.x(), op.nn())
	case 0x8:
		switch op.n() {
		case 0x0:
			p.setXToY(op.x(), op.y())
		case 0x1:
			p.orXY(op.x(), op.y())
		case 0x2:
			p.andXY(op.x(), op.y())
		case 0x3:
			p.xorXY(op.x(), op.y())
		case 0x4:
			p.addXY(op.x(), op.y())
		case 0x5:
			p.subtractYFromX(op.x(), op.y())
		case 0x6:
			p.shiftRightX(op.x())
		case 0x7:
			p.subtractXFromY(op.x(), op.y())
		case 0xE:
			p.shiftLeftX(op.x())
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
	case 0x9:
		if op.n() != 0x0 {
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
		p.stepIfXNotEqualsY(op.x(), op.y())
	case 0xA:
		p.setIToNNN(op.nnn())
	case 0xB:
		p.jumpWithOffset(op.nnn())
	case 0xC:
		p.setXToRandom(op.x(), op.nn())
	case 0xD:
		return p.drawSprite(op.x(), op.y(), op.n(), info)
	case 0xE:
		switch op.nn() {
		case 0x9E:
			p.stepIfKeyDown(op.x())
		case 0xA1:
			p.stepIfKeyUp(op.x())
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
	case 0xF:
		switch op.nn() {
		case 0x07:
			p.setXToDelay(op.x())
		case 0x0A:
			p.pauseUntilKeyPressed(op.x())
		case 0x15:
			p.setDelayToX(op.x())
		case 0x18:
			p.setSoundToX(op.x())
		case 0x1E:
			p.addXToI(op.x())
		case 0x29:
			p.setIToSymbol(op.x())
		case 0x33:
			return p.binaryCodedDecimal(op.x())
		case 0x55:
			return p.setRegistersToMemory(op.x())
		case 0x65:
			return p.setMemoryToRegisters(op.x())
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}
	}
	return nil
}

// 00E0
func (p *Processor) clearScreen(info *uint8) {
	for i := range p.display {
		p.display[i] = 0
	}
	*info |= Redraw
}

// 00EE
func (p *Processor) returnFromSubroutine() error {
	if p.sp == 0 {
		return ErrStackUnderflow
	}
	p.sp--
	p.pc = p.stack[p.sp]
	return nil
}

// 1nnn
func (p *Processor) jumpToLocation(nnn uint16) {
	p.pc = nnn
}

// 2nnn pushes the already-advanced program counter, so the matching
// return lands on the instruction after the call.
func (p *Processor) callSubroutine(nnn uint16) error {
	if int(p.sp) >= len(p.stack) {
		return ErrStackOverflow
	}
	p.stack[p.sp] = p.pc
	p.sp++
	p.pc = nnn
	return nil
}

// 3xkk
func (p *Processor) stepIfXEqualsNN(x, nn uint8) {
	if p.v[x] == nn {
		p.pc += 2
	}
}

// 4xkk
func (p *Processor) stepIfXNotEqualsNN(x, nn uint8) {
	if p.v[x] != nn {
		p.pc += 2
	}
}

// 5xy0
func (p *Processor) stepIfXEqualsY(x, y uint8) {
	if p.v[x] == p.v[y] {
		p.pc += 2
	}
}

// 9xy0
func (p *Processor) stepIfXNotEqualsY(x, y uint8) {
	if p.v[x] != p.v[y] {
		p.pc += 2
	}
}

// 6xkk
func (p *Processor) setXToNN(x, nn uint8) {
	p.v[x] = nn
}

// 7xkk wraps silently; unlike 8xy4 it never touches the carry flag.
func (p *Processor) addNNToX(x, nn uint8) {
	p.v[x] += nn
}

// 8xy0
func (p *Processor) setXToY(x, y uint8) {
	p.v[x] = p.v[y]
}

// 8xy1
func (p *Processor) orXY(x, y uint8) {
	p.v[x] |= p.v[y]
}

// 8xy2
func (p *Processor) andXY(x, y uint8) {
	p.v[x] &= p.v[y]
}

// 8xy3
func (p *Processor) xorXY(x, y uint8) {
	p.v[x] ^= p.v[y]
}

// 8xy4 stores the low 8 bits of the sum and raises VF on a 9-bit carry.
// The flag is written last so VF-as-destination still reports the carry.
func (p *Processor) addXY(x, y uint8) {
	sum := uint16(p.v[x]) + uint16(p.v[y])
	p.v[x] = byte(sum)
	p.v[CarryFlag] = 0
	if sum > 255 {
		p.v[CarryFlag] = 1
	}
}

// 8xy5: VF is the not-borrow flag, evaluated before the subtraction.
func (p *Processor) subtractYFromX(x, y uint8) {
	notBorrow := p.v[x] > p.v[y]
	p.v[x] -= p.v[y]
	p.v[CarryFlag] = 0
	if notBorrow {
		p.v[CarryFlag] = 1
	}
}

// 8xy7
func (p *Processor) subtractXFromY(x, y uint8) {
	notBorrow := p.v[y] > p.v[x]
	p.v[x] = p.v[y] - p.v[x]
	p.v[CarryFlag] = 0
	if notBorrow {
		p.v[CarryFlag] = 1
	}
}

// 8xy6: VF receives the bit shifted out.
func (p *Processor) shiftRightX(x uint8) {
	out := p.v[x] & 0x01
	p.v[x] >>= 1
	p.v[CarryFlag] = out
}

// 8xyE
func (p *Processor) shiftLeftX(x uint8) {
	out := (p.v[x] & 0x80) >> 7
	p.v[x] <<= 1
	p.v[CarryFlag] = out
}

// Annn
func (p *Processor) setIToNNN(nnn uint16) {
	p.i = nnn
}

// Bnnn
func (p *Processor) jumpWithOffset(nnn uint16) {
	p.pc = nnn + uint16(p.v[0x0])
}

// Cxkk
func (p *Processor) setXToRandom(x, nn uint8) {
	p.v[x] = p.randByte() & nn
}

// Dxyn reads n sprite rows from memory at the index register and XORs
// them into the framebuffer, most significant bit leftmost. Only the
// sprite origin wraps; pixels past the right or bottom edge are clipped.
// VF starts at 0 and is raised once any on pixel is turned off.
func (p *Processor) drawSprite(x, y, n uint8, info *uint8) error {
	startX := int(p.v[x]) % Width
	startY := int(p.v[y]) % Height

	p.v[CarryFlag] = 0

	for row := 0; row < int(n); row++ {
		spriteByte, err := p.readByte(p.i + uint16(row))
		if err != nil {
			return err
		}

		py := startY + row
		if py >= Height {
			break
		}

		for col := 0; col < 8; col++ {
			if spriteByte&(0x80>>col) == 0 {
				continue
			}

			px := startX + col
			if px >= Width {
				break
			}

			cell := py*Width + px
			if p.display[cell] == 1 {
				p.v[CarryFlag] = 1
			}
			p.display[cell] ^= 1
		}
	}

	*info |= Redraw
	return nil
}

// Ex9E
func (p *Processor) stepIfKeyDown(x uint8) {
	if p.keyState[p.v[x]&0x0F].Load() {
		p.pc += 2
	}
}

// ExA1
func (p *Processor) stepIfKeyUp(x uint8) {
	if !p.keyState[p.v[x]&0x0F].Load() {
		p.pc += 2
	}
}

// Fx07
func (p *Processor) setXToDelay(x uint8) {
	p.v[x] = p.delay
}

// Fx0A scans the keypad in ascending order. With no key down it cancels
// the pre-increment so the same instruction re-executes next cycle; the
// host loop keeps running and refreshes key state between cycles.
func (p *Processor) pauseUntilKeyPressed(x uint8) {
	for key := uint8(0); key < uint8(KeyCount); key++ {
		if p.keyState[key].Load() {
			p.v[x] = key
			return
		}
	}
	p.pc -= 2
}

// Fx15
func (p *Processor) setDelayToX(x uint8) {
	p.delay = p.v[x]
}

// Fx18
func (p *Processor) setSoundToX(x uint8) {
	p.sound = p.v[x]
}

// Fx1E: no overflow flag, matching the reference semantics.
func (p *Processor) addXToI(x uint8) {
	p.i += uint16(p.v[x])
}

// Fx29 points the index register at the 5-byte glyph for digit Vx.
func (p *Processor) setIToSymbol(x uint8) {
	p.i = FontStartAddress + uint16(p.v[x])*5
}

// Fx33 writes the hundreds, tens and ones digits of Vx to memory at the
// index register.
func (p *Processor) binaryCodedDecimal(x uint8) error {
	val := p.v[x]
	if err := p.writeByte(p.i, val/100); err != nil {
		return err
	}
	if err := p.writeByte(p.i+1, val/10%10); err != nil {
		return err
	}
	return p.writeByte(p.i+2, val%10)
}

// Fx55
func (p *Processor) setRegistersToMemory(x uint8) error {
	for n := uint16(0); n <= uint16(x); n++ {
		if err := p.writeByte(p.i+n, p.v[n]); err != nil {
			return err
		}
	}
	return nil
}

// Fx65
func (p *Processor) setMemoryToRegisters(x uint8) error {
	for n := uint16(0); n <= uint16(x); n++ {
		b, err := p.readByte(p.i + n)
		if err != nil {
			return err
		}
		p.v[n] = b
	}
	return nil
}
