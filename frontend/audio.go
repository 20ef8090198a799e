package frontend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/generator"
	"github.com/gordonklaus/portaudio"
	"github.com/retroenv/retrogolib/log"
)

const (
	beepBufferSize int     = 512
	beepNote       float64 = 440.0
)

var beepFormat = audio.FormatMono44100

// Beeper emits a steady sine tone while the sound timer is live. Start
// and Stop are idempotent, so the driver loop can sync the beeper to the
// timer state every tick without tracking edges itself.
type Beeper struct {
	logger  *log.Logger
	wg      sync.WaitGroup
	beeping atomic.Bool
}

func NewBeeper(logger *log.Logger) *Beeper {
	return &Beeper{logger: logger}
}

func (b *Beeper) Start(ctx context.Context) error {
	if b.beeping.Load() {
		return nil
	}
	b.beeping.Store(true)

	if err := portaudio.Initialize(); err != nil {
		b.beeping.Store(false)
		return err
	}

	buffer := &audio.FloatBuffer{
		Data:   make([]float64, beepBufferSize),
		Format: beepFormat,
	}

	osc := generator.NewOsc(generator.WaveSine, beepNote, buffer.Format.SampleRate)
	osc.Amplitude = 1

	b.wg.Go(func() {
		defer func() {
			_ = portaudio.Terminate()
		}()

		out := make([]float32, beepBufferSize)

		stream, err := portaudio.OpenDefaultStream(0, 1, float64(beepFormat.SampleRate), len(out), &out)
		if err != nil {
			b.logger.Error("opening audio stream", log.Err(err))
			return
		}
		defer func() {
			_ = stream.Close()
		}()

		if err := stream.Start(); err != nil {
			b.logger.Error("starting audio stream", log.Err(err))
			return
		}
		defer func() {
			_ = stream.Stop()
		}()

		for b.beeping.Load() && ctx.Err() == nil {
			if err := osc.Fill(buffer); err != nil {
				b.logger.Error("filling audio buffer", log.Err(err))
				return
			}

			f64Tof32(out, buffer.Data)

			if err := stream.Write(); err != nil {
				b.logger.Error("writing audio stream", log.Err(err))
				return
			}
		}
	})

	return nil
}

func (b *Beeper) Stop() {
	if !b.beeping.Load() {
		return
	}
	b.beeping.Store(false)
	b.wg.Wait()
}

func f64Tof32(dst []float32, src []float64) {
	for i := range src {
		dst[i] = float32(src[i])
	}
}
