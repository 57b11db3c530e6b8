package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

// Processor plays impact clicks through the default output device.
type Processor struct {
	Stream *portaudio.Stream

	mu    sync.Mutex
	synth *Synth
	// level is a smoothed output amplitude for meters.
	level float64

	Active bool
}

func NewProcessor() *Processor {
	return &Processor{synth: NewSynth(SampleRate)}
}

func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.ProcessAudio)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	physics.Logger().Printf("audio: output started at %d Hz", SampleRate)
	a.Stream = stream
	a.Active = true
	return nil
}

func (a *Processor) Stop() {
	if !a.Active {
		return
	}
	if a.Stream != nil {
		a.Stream.Stop()
		a.Stream.Close()
	}
	portaudio.Terminate()
	a.Active = false
}

// Impact queues a click for a contact closing at speed.
func (a *Processor) Impact(speed float64) {
	a.mu.Lock()
	a.synth.Trigger(speed)
	a.mu.Unlock()
}

// Level is the smoothed output amplitude in [0, 1].
func (a *Processor) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

// Attach feeds every new contact in w to the processor and returns a
// function that detaches it.
func (a *Processor) Attach(w *world.World) func() {
	return w.Events().On(event.Impact, func(e event.Event) {
		if e.Contact == nil {
			return
		}
		a.Impact(e.Contact.ImpactVelocityAlongNormal())
	})
}

// ProcessAudio is the portaudio callback.
func (a *Processor) ProcessAudio(out [][]float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	peak := 0.0
	for i := range out[0] {
		v := a.synth.Next()
		peak = math.Max(peak, math.Abs(v))
		for ch := range out {
			out[ch][i] = float32(v)
		}
	}
	a.level = a.level*0.8 + peak*0.2
}
