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

// Opcode is one 16-bit instruction word, fetched big-endian from memory.
type Opcode uint16

// kind is the first nibble of the opcode, selecting the operation family.
func (op Opcode) kind() uint8 {
	return uint8(op >> 12)
}

// x is the second nibble, an X register index.
func (op Opcode) x() uint8 {
	return uint8(op>>8) & 0x0F
}

// y is the third nibble, a Y register index.
func (op Opcode) y() uint8 {
	return uint8(op>>4) & 0x0F
}

// n is the fourth nibble.
func (op Opcode) n() uint8 {
	return uint8(op) & 0x0F
}

// nn is the low byte, combining the third and fourth nibbles.
func (op Opcode) nn() uint8 {
	return uint8(op)
}

// nnn is the low 12 bits, an address operand.
func (op Opcode) nnn() uint16 {
	return uint16(op) & 0x0FFF
}

func (op Opcode) String() string {
	return fmt.Sprintf("%04X", uint16(op))
}
