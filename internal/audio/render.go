package audio

import (
	"os"
	"sort"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/san-kum/rigidsim/internal/sim"
)

// tail is the time left after the last impact for its click to die out.
const tail = 0.5

var wavFormat = beep.Format{
	SampleRate:  beep.SampleRate(SampleRate),
	NumChannels: 2,
	Precision:   2,
}

// ImpactStreamer plays impacts at their recorded times. It ends tail
// seconds after the last impact.
func ImpactStreamer(impacts []sim.Impact) beep.Streamer {
	sorted := make([]sim.Impact, len(impacts))
	copy(sorted, impacts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	end := tail
	if n := len(sorted); n > 0 {
		end += sorted[n-1].Time
	}
	total := wavFormat.SampleRate.N(time.Duration(end * float64(time.Second)))

	synth := NewSynth(SampleRate)
	next, pos := 0, 0
	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			t := float64(pos) / SampleRate
			for next < len(sorted) && sorted[next].Time <= t {
				synth.Trigger(sorted[next].Speed)
				next++
			}
			v := synth.Next()
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
	return beep.Take(total, s)
}

// RenderImpacts writes the impacts of a run to a 16-bit stereo WAV file.
func RenderImpacts(impacts []sim.Impact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wav.Encode(f, ImpactStreamer(impacts), wavFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
