package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/wav"
	"github.com/san-kum/rigidsim/internal/sim"
)

func TestSynth_ClickDecays(t *testing.T) {
	s := NewSynth(SampleRate)
	s.Trigger(0.01)
	if s.Active() != 0 {
		t.Fatal("impact below the threshold was voiced")
	}

	s.Trigger(3)
	if s.Active() != 1 {
		t.Fatalf("Active = %d, want 1", s.Active())
	}
	buf := make([]float64, 256)
	s.Fill(buf)
	peak := 0.0
	for _, v := range buf {
		if v < -1 || v > 1 {
			t.Fatalf("sample %v out of range", v)
		}
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 0.05 {
		t.Errorf("peak = %v, want an audible click", peak)
	}

	s.Fill(make([]float64, SampleRate))
	if s.Active() != 0 {
		t.Errorf("Active = %d after a second, want 0", s.Active())
	}
}

func TestSynth_LouderForHarderImpacts(t *testing.T) {
	peak := func(speed float64) float64 {
		s := NewSynth(SampleRate)
		s.Trigger(speed)
		p := 0.0
		for i := 0; i < 200; i++ {
			p = math.Max(p, math.Abs(s.Next()))
		}
		return p
	}
	if soft, hard := peak(0.5), peak(5); hard <= soft {
		t.Errorf("peak(5) = %v, want more than peak(0.5) = %v", hard, soft)
	}
}

func TestSynth_VoiceLimit(t *testing.T) {
	s := NewSynth(SampleRate)
	for i := 0; i < maxVoices+10; i++ {
		s.Trigger(1 + float64(i))
	}
	if s.Active() != maxVoices {
		t.Errorf("Active = %d, want %d", s.Active(), maxVoices)
	}
}

func TestRenderImpacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impacts.wav")
	impacts := []sim.Impact{
		{Time: 0.5, Speed: 2},
		{Time: 0.1, Speed: 4},
	}
	if err := RenderImpacts(impacts, path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, format, err := wav.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if format.NumChannels != 2 || int(format.SampleRate) != SampleRate {
		t.Errorf("format = %+v", format)
	}
	want := int(math.Round((0.5 + tail) * SampleRate))
	if d := s.Len() - want; d < -1 || d > 1 {
		t.Errorf("Len = %d samples, want %d", s.Len(), want)
	}
}
