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

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Disassemble renders an opcode as its conventional mnemonic, for trace
// logging and debugging. Opcodes that match no known instruction come
// back as a data word directive.
func Disassemble(op Opcode) string {
	instruction := lookupInstruction(op)
	if instruction == nil {
		return fmt.Sprintf(".dw $%04X", uint16(op))
	}

	params := formatParams(instruction.Name, op)
	if params == "" {
		return instruction.Name
	}
	return fmt.Sprintf("%s %s", instruction.Name, params)
}

// lookupInstruction matches the opcode against the instruction table for
// its top nibble using each candidate's mask/value pair.
func lookupInstruction(op Opcode) *chip8.Instruction {
	for _, candidate := range chip8.Opcodes[int(op.kind())] {
		if uint16(op)&candidate.Info.Mask == candidate.Info.Value {
			return candidate.Instruction
		}
	}
	return nil
}

func formatParams(name string, op Opcode) string {
	switch name {
	case chip8.ClsInst.Name, chip8.RetInst.Name:
		return ""
	case chip8.JpInst.Name:
		if op.kind() == 0xB {
			return fmt.Sprintf("V0, $%03X", op.nnn())
		}
		return fmt.Sprintf("$%03X", op.nnn())
	case chip8.CallInst.Name:
		return fmt.Sprintf("$%03X", op.nnn())
	case chip8.SeInst.Name, chip8.SneInst.Name:
		if op.kind() == 0x5 || op.kind() == 0x9 {
			return fmt.Sprintf("V%X, V%X", op.x(), op.y())
		}
		return fmt.Sprintf("V%X, $%02X", op.x(), op.nn())
	case chip8.LdInst.Name:
		return formatLoadParams(op)
	case chip8.AddInst.Name:
		switch op.kind() {
		case 0x7:
			return fmt.Sprintf("V%X, $%02X", op.x(), op.nn())
		case 0x8:
			return fmt.Sprintf("V%X, V%X", op.x(), op.y())
		default: // Fx1E
			return fmt.Sprintf("I, V%X", op.x())
		}
	case chip8.OrInst.Name, chip8.AndInst.Name, chip8.XorInst.Name,
		chip8.SubInst.Name, chip8.SubnInst.Name:
		return fmt.Sprintf("V%X, V%X", op.x(), op.y())
	case chip8.ShrInst.Name, chip8.ShlInst.Name, chip8.SkpInst.Name, chip8.SknpInst.Name:
		return fmt.Sprintf("V%X", op.x())
	case chip8.RndInst.Name:
		return fmt.Sprintf("V%X, $%02X", op.x(), op.nn())
	case chip8.DrwInst.Name:
		return fmt.Sprintf("V%X, V%X, $%X", op.x(), op.y(), op.n())
	}
	return ""
}

// formatLoadParams covers the LD forms spread over five opcode families.
func formatLoadParams(op Opcode) string {
	switch op.kind() {
	case 0x6:
		return fmt.Sprintf("V%X, $%02X", op.x(), op.nn())
	case 0x8:
		return fmt.Sprintf("V%X, V%X", op.x(), op.y())
	case 0xA:
		return fmt.Sprintf("I, $%03X", op.nnn())
	case 0xF:
		switch op.nn() {
		case 0x07:
			return fmt.Sprintf("V%X, DT", op.x())
		case 0x0A:
			return fmt.Sprintf("V%X, K", op.x())
		case 0x15:
			return fmt.Sprintf("DT, V%X", op.x())
		case 0x18:
			return fmt.Sprintf("ST, V%X", op.x())
		case 0x29:
			return fmt.Sprintf("F, V%X", op.x())
		case 0x33:
			return fmt.Sprintf("B, V%X", op.x())
		case 0x55:
			return fmt.Sprintf("[I], V%X", op.x())
		case 0x65:
			return fmt.Sprintf("V%X, [I]", op.x())
		}
	}
	return ""
}
