package frontend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/retroenv/retrogolib/log"

	"chip8emu/chip8"
)

// Config holds the host-side pacing and debugging knobs. The core has no
// configuration surface of its own.
type Config struct {
	CycleRate int  // instructions per second, defaults to 700
	Trace     bool // log each executed instruction
}

// Run opens the emulator window and drives the processor until the
// window closes, the context is cancelled, or a cycle reports an error.
// The processor must already have a program loaded.
func Run(ctx context.Context, logger *log.Logger, proc *chip8.Processor, cfg Config) error {
	cycleInterval := chip8.ClockRate
	if cfg.CycleRate > 0 {
		cycleInterval = time.Second / time.Duration(cfg.CycleRate)
	}

	a := app.New()
	w := a.NewWindow("CHIP-8 Emulator")

	canv, ok := w.Canvas().(desktop.Canvas)
	if !ok {
		return errors.New("emulator cannot be run on mobile")
	}

	keys := &keyHandler{proc: proc}
	canv.SetOnKeyDown(keys.onKeyDown)
	canv.SetOnKeyUp(keys.onKeyUp)

	scr := newScreen()
	w.SetContent(scr.image)
	w.Resize(fyne.NewSize(
		float32(chip8.Width*windowScale),
		float32(chip8.Height*windowScale)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	beeper := NewBeeper(logger)
	defer beeper.Stop()

	done := make(chan error, 1)
	go func() {
		done <- drive(ctx, logger, proc, scr, beeper, cycleInterval, cfg.Trace)
		fyne.Do(a.Quit)
	}()

	w.ShowAndRun()
	cancel()

	return <-done
}

// drive is the host loop: it paces Step calls at the configured cycle
// rate and ticks the timers at 60hz, independent of instruction
// throughput. A decode or memory error stops the run.
func drive(ctx context.Context, logger *log.Logger, proc *chip8.Processor,
	scr *screen, beeper *Beeper, cycleInterval time.Duration, trace bool) error {

	cpuTicker := time.NewTicker(cycleInterval)
	defer cpuTicker.Stop()

	timerTicker := time.NewTicker(chip8.TimerRate)
	defer timerTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timerTicker.C:
			proc.TickTimers()
			if !proc.SoundActive() {
				beeper.Stop()
			}

		case <-cpuTicker.C:
			pc := proc.ProgramCounter()

			if trace {
				if op, err := proc.OpcodeAt(pc); err == nil {
					logger.Debug(chip8.Disassemble(op),
						log.String("pc", fmt.Sprintf("%03X", pc)))
				}
			}

			info, err := proc.Step()
			if err != nil {
				logger.Error("emulation halted",
					log.Err(err),
					log.String("pc", fmt.Sprintf("%03X", pc)))
				return err
			}

			if info&chip8.Sound != 0 {
				if err := beeper.Start(ctx); err != nil {
					logger.Error("starting beep", log.Err(err))
				}
			} else {
				beeper.Stop()
			}

			if info&chip8.Redraw != 0 {
				scr.render(proc.Display())
			}
		}
	}
}
