package audio

import "math"

const (
	SampleRate = 44100
	BufferSize = 1024

	baseFreq  = 180.0
	freqSlope = 90.0
	maxFreq   = 1760.0
	// refSpeed is the impact speed that plays at full amplitude.
	refSpeed = 6.0
	// minSpeed is the quietest impact that is still voiced.
	minSpeed  = 0.05
	decayRate = 18.0
	maxVoices = 32
	silence   = 1e-4
)

type voice struct {
	freq, amp, phase float64
}

// Synth mixes decaying sine clicks, one per impact. Harder impacts are
// louder and higher.
type Synth struct {
	voices []voice
	rate   float64
	decay  float64
	Volume float64
}

func NewSynth(rate float64) *Synth {
	return &Synth{
		voices: make([]voice, 0, maxVoices),
		rate:   rate,
		decay:  math.Exp(-decayRate / rate),
		Volume: 0.5,
	}
}

// Trigger starts a click for an impact at the given closing speed.
func (s *Synth) Trigger(speed float64) {
	speed = math.Abs(speed)
	if speed < minSpeed {
		return
	}
	v := voice{
		freq: math.Min(maxFreq, baseFreq+freqSlope*speed),
		amp:  math.Min(1, speed/refSpeed),
	}
	if len(s.voices) == maxVoices {
		// Steal the quietest voice.
		q := 0
		for i := range s.voices {
			if s.voices[i].amp < s.voices[q].amp {
				q = i
			}
		}
		s.voices[q] = v
		return
	}
	s.voices = append(s.voices, v)
}

// Active is the number of sounding voices.
func (s *Synth) Active() int { return len(s.voices) }

// Next returns the next mono sample in [-1, 1].
func (s *Synth) Next() float64 {
	sum := 0.0
	live := s.voices[:0]
	for _, v := range s.voices {
		sum += v.amp * math.Sin(2*math.Pi*v.phase)
		v.phase += v.freq / s.rate
		if v.phase >= 1 {
			v.phase--
		}
		v.amp *= s.decay
		if v.amp > silence {
			live = append(live, v)
		}
	}
	s.voices = live
	return math.Tanh(sum * s.Volume)
}

func (s *Synth) Fill(out []float64) {
	for i := range out {
		out[i] = s.Next()
	}
}
