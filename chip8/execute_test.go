package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func execute(t *testing.T, p *Processor, op Opcode) uint8 {
	t.Helper()
	var info uint8
	assert.NoError(t, p.Execute(op, &info))
	return info
}

func TestAddWithCarry(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy uint8
		want   uint8
		carry  uint8
	}{
		{"no carry", 5, 3, 8, 0},
		{"carry", 200, 100, 44, 1},
		{"exact overflow", 255, 1, 0, 1},
		{"sum of 255", 254, 1, 255, 0},
		{"zero", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = tt.vx
			p.v[0x1] = tt.vy

			execute(t, p, 0x8014)

			assert.Equal(t, tt.want, p.v[0x0])
			assert.Equal(t, tt.carry, p.v[CarryFlag])
		})
	}
}

func TestSubtractWithNotBorrow(t *testing.T) {
	tests := []struct {
		name      string
		vx, vy    uint8
		want      uint8
		notBorrow uint8
	}{
		{"vx greater", 10, 3, 7, 1},
		{"equal", 7, 7, 0, 0},
		{"borrow wraps", 3, 10, 249, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = tt.vx
			p.v[0x1] = tt.vy

			execute(t, p, 0x8015)

			assert.Equal(t, tt.want, p.v[0x0])
			assert.Equal(t, tt.notBorrow, p.v[CarryFlag])
		})
	}
}

func TestReverseSubtract(t *testing.T) {
	tests := []struct {
		name      string
		vx, vy    uint8
		want      uint8
		notBorrow uint8
	}{
		{"vy greater", 3, 10, 7, 1},
		{"equal", 7, 7, 0, 0},
		{"borrow wraps", 10, 3, 249, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = tt.vx
			p.v[0x1] = tt.vy

			execute(t, p, 0x8017)

			assert.Equal(t, tt.want, p.v[0x0])
			assert.Equal(t, tt.notBorrow, p.v[CarryFlag])
		})
	}
}

func TestShiftRight(t *testing.T) {
	tests := []struct {
		name   string
		vx     uint8
		want   uint8
		bitOut uint8
	}{
		{"lsb set", 0x05, 0x02, 1},
		{"lsb clear", 0x04, 0x02, 0},
		{"all ones", 0xFF, 0x7F, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = tt.vx

			execute(t, p, 0x8006)

			assert.Equal(t, tt.want, p.v[0x0])
			assert.Equal(t, tt.bitOut, p.v[CarryFlag])
		})
	}
}

func TestShiftLeft(t *testing.T) {
	tests := []struct {
		name   string
		vx     uint8
		want   uint8
		bitOut uint8
	}{
		{"msb set", 0x81, 0x02, 1},
		{"msb clear", 0x41, 0x82, 0},
		{"all ones", 0xFF, 0xFE, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = tt.vx

			execute(t, p, 0x800E)

			assert.Equal(t, tt.want, p.v[0x0])
			assert.Equal(t, tt.bitOut, p.v[CarryFlag])
		})
	}
}

func TestAssignAndLogicalOps(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
		want uint8
	}{
		{"assign", 0x8010, 0x3C},
		{"or", 0x8011, 0xBE},
		{"and", 0x8012, 0x28},
		{"xor", 0x8013, 0x96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.v[0x0] = 0xaa
			p.v[0x1] = 0x3c
			p.v[CarryFlag] = 1

			execute(t, p, tt.op)

			assert.Equal(t, tt.want, p.v[0x0])
			// Logical ops leave the carry flag alone.
			assert.Equal(t, uint8(1), p.v[CarryFlag])
		})
	}
}

func TestImmediateAddWrapsWithoutFlag(t *testing.T) {
	p := New()
	p.v[0x0] = 250

	execute(t, p, 0x700A) // ADD V0, $0A

	assert.Equal(t, uint8(4), p.v[0x0])
	assert.Equal(t, uint8(0), p.v[CarryFlag])
}

func TestSkipInstructions(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		v0, v1  uint8
		skip    bool
	}{
		{"se byte taken", []byte{0x30, 0x42}, 0x42, 0, true},
		{"se byte not taken", []byte{0x30, 0x42}, 0x41, 0, false},
		{"sne byte taken", []byte{0x40, 0x42}, 0x41, 0, true},
		{"sne byte not taken", []byte{0x40, 0x42}, 0x42, 0, false},
		{"se register taken", []byte{0x50, 0x10}, 7, 7, true},
		{"se register not taken", []byte{0x50, 0x10}, 7, 8, false},
		{"sne register taken", []byte{0x90, 0x10}, 7, 8, true},
		{"sne register not taken", []byte{0x90, 0x10}, 7, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			assert.NoError(t, p.Load(tt.program))
			p.v[0x0] = tt.v0
			p.v[0x1] = tt.v1

			_, err := p.Step()
			assert.NoError(t, err)

			want := ProgramStartAddress + 2
			if tt.skip {
				want += 2
			}
			assert.Equal(t, want, p.ProgramCounter())
		})
	}
}

func TestCallReturnRoundTrip(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{
		0x22, 0x08, // 0x200: CALL $208
		0x00, 0x00, // 0x202
		0x00, 0x00, // 0x204
		0x00, 0x00, // 0x206
		0x00, 0xEE, // 0x208: RET
	}))

	_, err := p.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x208), p.ProgramCounter())
	assert.Equal(t, 1, p.StackDepth())

	// Return restores the address past the call.
	_, err = p.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x202), p.ProgramCounter())
	assert.Equal(t, 0, p.StackDepth())
}

func TestStackOverflow(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0x22, 0x00})) // CALL $200, forever

	for range StackDepthLimit {
		_, err := p.Step()
		assert.NoError(t, err)
	}
	assert.Equal(t, StackDepthLimit, p.StackDepth())

	_, err := p.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
}

func TestStackUnderflow(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0x00, 0xEE}))

	_, err := p.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
}

func TestJumps(t *testing.T) {
	p := New()
	execute(t, p, 0x1234)
	assert.Equal(t, uint16(0x234), p.ProgramCounter())

	p.v[0x0] = 0x10
	execute(t, p, 0xB234)
	assert.Equal(t, uint16(0x244), p.ProgramCounter())
}

func TestSetIndex(t *testing.T) {
	p := New()
	execute(t, p, 0xA123)
	assert.Equal(t, uint16(0x123), p.Index())
}

func TestAddToIndexWithoutFlag(t *testing.T) {
	p := New()
	p.i = 0x100
	p.v[0x3] = 0x20

	execute(t, p, 0xF31E)

	assert.Equal(t, uint16(0x120), p.Index())
	assert.Equal(t, uint8(0), p.v[CarryFlag])
}

func TestRandomMasked(t *testing.T) {
	p := New()
	p.SetRandSource(func() byte { return 0xAB })

	execute(t, p, 0xC07F)
	assert.Equal(t, uint8(0xAB&0x7F), p.v[0x0])

	execute(t, p, 0xC100)
	assert.Equal(t, uint8(0), p.v[0x1])
}

func TestClearScreen(t *testing.T) {
	p := New()
	p.display[0] = 1
	p.display[Area-1] = 1

	var info uint8
	assert.NoError(t, p.Execute(0x00E0, &info))

	assert.True(t, info&Redraw != 0)
	for _, cell := range p.Display() {
		assert.Equal(t, uint8(0), cell)
	}
}

func TestDrawSprite(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xF0, 0x90})) // two sprite rows
	p.i = ProgramStartAddress

	info := execute(t, p, 0xD012) // DRW V0, V1, $2 at (0, 0)
	assert.True(t, info&Redraw != 0)
	assert.Equal(t, uint8(0), p.v[CarryFlag])

	display := p.Display()
	for col := range 4 {
		assert.Equal(t, uint8(1), display[col], "row 0 col %d", col)
	}
	assert.Equal(t, uint8(0), display[4])
	assert.Equal(t, uint8(1), display[Width])
	assert.Equal(t, uint8(0), display[Width+1])
	assert.Equal(t, uint8(1), display[Width+3])
}

func TestDrawSpriteXORCollision(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xF0}))
	p.i = ProgramStartAddress

	execute(t, p, 0xD011)
	assert.Equal(t, uint8(0), p.v[CarryFlag])

	// XOR is its own inverse: the second identical draw erases every
	// pixel of the first, and erasing an on pixel is a collision.
	execute(t, p, 0xD011)
	assert.Equal(t, uint8(1), p.v[CarryFlag])
	for _, cell := range p.Display() {
		assert.Equal(t, uint8(0), cell)
	}
}

func TestDrawSpriteOverlapCollision(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xF0}))
	p.i = ProgramStartAddress

	execute(t, p, 0xD011) // at (0, 0)

	p.v[0x0] = 2 // overlaps columns 2-3
	info := execute(t, p, 0xD011)
	assert.True(t, info&Redraw != 0)
	assert.Equal(t, uint8(1), p.v[CarryFlag])
}

func TestDrawSpriteOriginWraps(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0x80}))
	p.i = ProgramStartAddress
	p.v[0x0] = uint8(Width + 4)  // wraps to column 4
	p.v[0x1] = uint8(Height + 2) // wraps to row 2

	execute(t, p, 0xD011)

	assert.Equal(t, uint8(1), p.Display()[2*Width+4])
}

func TestDrawSpriteClipsAtEdges(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xFF, 0xFF}))
	p.i = ProgramStartAddress
	p.v[0x0] = uint8(Width - 4)  // right edge: 4 visible columns
	p.v[0x1] = uint8(Height - 1) // bottom edge: 1 visible row

	execute(t, p, 0xD012)

	display := p.Display()
	lastRow := (Height - 1) * Width
	for col := range 4 {
		assert.Equal(t, uint8(1), display[lastRow+Width-4+col])
	}

	// Nothing wrapped around to column 0 or row 0.
	assert.Equal(t, uint8(0), display[lastRow])
	for col := range Width {
		assert.Equal(t, uint8(0), display[col])
	}
	assert.Equal(t, uint8(0), p.v[CarryFlag])
}

func TestKeySkips(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		pressed bool
		skip    bool
	}{
		{"skp key down", []byte{0xE0, 0x9E}, true, true},
		{"skp key up", []byte{0xE0, 0x9E}, false, false},
		{"sknp key down", []byte{0xE0, 0xA1}, true, false},
		{"sknp key up", []byte{0xE0, 0xA1}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			assert.NoError(t, p.Load(tt.program))
			p.v[0x0] = 0x5
			p.SetKey(0x5, tt.pressed)

			_, err := p.Step()
			assert.NoError(t, err)

			want := ProgramStartAddress + 2
			if tt.skip {
				want += 2
			}
			assert.Equal(t, want, p.ProgramCounter())
		})
	}
}

func TestBlockForKey(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xF0, 0x0A})) // LD V0, K

	// No key down: the same instruction re-executes next cycle.
	for range 3 {
		_, err := p.Step()
		assert.NoError(t, err)
		assert.Equal(t, ProgramStartAddress, p.ProgramCounter())
	}

	// Lowest pressed key wins the ascending scan.
	p.SetKey(0x9, true)
	p.SetKey(0x3, true)

	_, err := p.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x3), p.Register(0x0))
	assert.Equal(t, ProgramStartAddress+2, p.ProgramCounter())
}

func TestTimerInstructions(t *testing.T) {
	p := New()
	p.v[0x0] = 42

	execute(t, p, 0xF015) // LD DT, V0
	assert.Equal(t, uint8(42), p.DelayTimer())

	execute(t, p, 0xF018) // LD ST, V0
	assert.Equal(t, uint8(42), p.SoundTimer())
	assert.True(t, p.SoundActive())

	execute(t, p, 0xF107) // LD V1, DT
	assert.Equal(t, uint8(42), p.v[0x1])
}

func TestFontAddress(t *testing.T) {
	p := New()

	for digit := uint8(0); digit < 16; digit++ {
		p.v[0x0] = digit
		execute(t, p, 0xF029)

		assert.Equal(t, FontStartAddress+uint16(digit)*5, p.Index())

		// The glyph's five bytes live at the computed address.
		for row := range 5 {
			b, err := p.ReadMemory(p.Index() + uint16(row))
			assert.NoError(t, err)
			assert.Equal(t, fontSet[int(digit)*5+row], b)
		}
	}
}

func TestBinaryCodedDecimal(t *testing.T) {
	tests := []struct {
		value  uint8
		digits [3]uint8
	}{
		{157, [3]uint8{1, 5, 7}},
		{255, [3]uint8{2, 5, 5}},
		{42, [3]uint8{0, 4, 2}},
		{7, [3]uint8{0, 0, 7}},
		{0, [3]uint8{0, 0, 0}},
	}

	for _, tt := range tests {
		p := New()
		p.v[0x0] = tt.value
		p.i = 0x300

		execute(t, p, 0xF033)

		for n, want := range tt.digits {
			b, err := p.ReadMemory(0x300 + uint16(n))
			assert.NoError(t, err)
			assert.Equal(t, want, b, "value %d digit %d", tt.value, n)
		}
	}
}

func TestStoreLoadRegistersRoundTrip(t *testing.T) {
	p := New()
	original := []uint8{0x11, 0x22, 0x33, 0x44, 0x55}
	copy(p.v[:], original)
	p.i = 0x300

	execute(t, p, 0xF455) // LD [I], V4

	for n := range p.v {
		p.v[n] = 0
	}

	execute(t, p, 0xF465) // LD V4, [I]

	for n, want := range original {
		assert.Equal(t, want, p.v[n])
	}
	// V5 and up were not part of the transfer.
	assert.Equal(t, uint8(0), p.v[0x5])
}

func TestMemoryInstructionsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		op    Opcode
		index uint16
	}{
		{"bcd", 0xF033, uint16(MemorySize - 1)},
		{"store registers", 0xF155, uint16(MemorySize - 1)},
		{"load registers", 0xF165, uint16(MemorySize - 1)},
		{"draw", 0xD011, uint16(MemorySize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.i = tt.index

			var info uint8
			err := p.Execute(tt.op, &info)
			assert.True(t, errors.Is(err, ErrAddressOutOfRange))
		})
	}
}

func TestUnknownOpcodes(t *testing.T) {
	tests := []Opcode{
		0x0000, 0x00FF, 0x5011, 0x800F, 0x9013,
		0xE000, 0xE0FF, 0xF000, 0xF0FF,
	}

	for _, op := range tests {
		t.Run(op.String(), func(t *testing.T) {
			p := New()

			var info uint8
			err := p.Execute(op, &info)
			assert.True(t, errors.Is(err, ErrUnknownOpcode))
		})
	}
}

func TestUnknownOpcodeHaltsStep(t *testing.T) {
	p := New()
	assert.NoError(t, p.Load([]byte{0xFF, 0xFF}))

	_, err := p.Step()
	assert.True(t, errors.Is(err, ErrUnknownOpcode))
}
