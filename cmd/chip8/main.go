// Package main implements the CHIP-8 emulator command line entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"chip8emu/chip8"
	"chip8emu/frontend"
	"chip8emu/rom"
)

type options struct {
	cycleRate int
	trace     bool
	debug     bool
	quiet     bool
	input     string
}

func main() {
	ctx := app.Context()

	opts, err := parseFlags()
	if err != nil {
		fmt.Printf("usage: %s [options] <program file>\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Println()
		os.Exit(1)
	}

	logger := createLogger(opts)

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Fatal(err.Error())
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.IntVar(&opts.cycleRate, "cycles", 700, "instruction rate in hz")
	flag.BoolVar(&opts.trace, "trace", false, "log each executed instruction")
	flag.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flag.BoolVar(&opts.quiet, "quiet", false, "only log errors")
	flag.Parse()

	opts.input = flag.Arg(0)
	if opts.input == "" {
		return opts, errors.New("missing program file argument")
	}
	return opts, nil
}

func createLogger(opts options) *log.Logger {
	cfg := log.DefaultConfig()
	if opts.debug || opts.trace {
		cfg.Level = log.DebugLevel
	} else if opts.quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	program, err := rom.Load(opts.input)
	if err != nil {
		return err
	}

	proc := chip8.New()
	if err := proc.Load(program); err != nil {
		return err
	}

	logger.Info("program loaded",
		log.String("file", opts.input),
		log.String("size", fmt.Sprintf("%d bytes", len(program))))

	return frontend.Run(ctx, logger, proc, frontend.Config{
		CycleRate: opts.cycleRate,
		Trace:     opts.trace,
	})
}
