// Package rom handles loading CHIP-8 program files from disk.
package rom

import (
	"errors"
	"fmt"
	"os"

	"chip8emu/chip8"
)

// MaxSize is the largest program that fits between the program start
// address and the end of memory.
const MaxSize = chip8.MemorySize - int(chip8.ProgramStartAddress)

var (
	ErrEmpty    = errors.New("program file is empty")
	ErrTooLarge = errors.New("program file exceeds program memory")
)

// Load reads a program file and validates that it fits the machine's
// program area. The size check lives here, not in the core: the engine
// assumes a well-formed byte sequence once control reaches it.
func Load(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file %s: %w", path, err)
	}

	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	if len(b) > MaxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			ErrTooLarge, path, len(b), MaxSize)
	}
	return b, nil
}
