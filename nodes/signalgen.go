// File: nodes/signalgen.go
// signalgen.go is grounded on
// original_source/lib/nodes/signal_generator.cpp: a synthetic signal
// source producing sine/square/triangle/ramp/counter/random/constant
// waveforms at a configured rate, one value per declared signal slot.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package nodes

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/villas-go/node/internal/coreerr"
	"github.com/villas-go/node/internal/iopoll"
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/sample"
	"github.com/villas-go/node/signal"
)

// Waveform enumerates the generator kinds original_source supports
// (minus "mixed"/"pulse", folded into an explicit per-value kind list
// instead of a single mode that special-cases index%7).
type Waveform int

const (
	WaveConstant Waveform = iota
	WaveSine
	WaveSquare
	WaveTriangle
	WaveRamp
	WaveCounter
	WaveRandom
)

func parseWaveform(s string) (Waveform, error) {
	switch s {
	case "constant":
		return WaveConstant, nil
	case "sine":
		return WaveSine, nil
	case "square":
		return WaveSquare, nil
	case "triangle":
		return WaveTriangle, nil
	case "ramp":
		return WaveRamp, nil
	case "counter":
		return WaveCounter, nil
	case "random":
		return WaveRandom, nil
	default:
		return 0, fmt.Errorf("unknown signal waveform %q", s)
	}
}

func (w Waveform) String() string {
	names := [...]string{"constant", "sine", "square", "triangle", "ramp", "counter", "random"}
	if int(w) < len(names) {
		return names[w]
	}
	return "unknown"
}

// Generator is a synthetic, realtime or offline sample source.
type Generator struct {
	node.Base

	waves      []Waveform
	amplitude  []float64
	frequency  []float64
	offset     []float64
	phase      []float64
	stddev     []float64
	rateHz     float64
	realtime   bool
	limit      int64

	started time.Time
	counter uint64
	last    []float64
	rng     *rand.Rand
	timer   *iopoll.RateTimer
}

// NewGenerator constructs an unparsed Generator node.
func NewGenerator(name string) *Generator {
	return &Generator{Base: node.NewBase(name, "signal"), rateHz: 10, realtime: true, limit: -1}
}

func floatSlice(v any, n int, def float64) []float64 {
	out := make([]float64, n)
	switch t := v.(type) {
	case []float64:
		for i := range out {
			if i < len(t) {
				out[i] = t[i]
			} else {
				out[i] = def
			}
		}
	case float64:
		for i := range out {
			out[i] = t
		}
	default:
		for i := range out {
			out[i] = def
		}
	}
	return out
}

func (g *Generator) Parse(cfg map[string]any) error {
	values := 1
	if v, ok := cfg["values"].(float64); ok {
		values = int(v)
	}
	if values <= 0 {
		return coreerr.New(coreerr.KindConfig, "signal: 'values' must be positive")
	}

	g.waves = make([]Waveform, values)
	switch sig := cfg["signal"].(type) {
	case string:
		w, err := parseWaveform(sig)
		if err != nil {
			return coreerr.Wrap(coreerr.KindConfig, err, "signal: invalid 'signal'")
		}
		for i := range g.waves {
			g.waves[i] = w
		}
	case []string:
		if len(sig) != values {
			return coreerr.New(coreerr.KindConfig, "signal: length of 'signal' must match 'values'")
		}
		for i, name := range sig {
			w, err := parseWaveform(name)
			if err != nil {
				return coreerr.Wrap(coreerr.KindConfig, err, "signal: invalid 'signal'")
			}
			g.waves[i] = w
		}
	default:
		return coreerr.New(coreerr.KindConfig, "signal: 'signal' is required")
	}

	g.amplitude = floatSlice(cfg["amplitude"], values, 1)
	g.frequency = floatSlice(cfg["frequency"], values, 1)
	g.offset = floatSlice(cfg["offset"], values, 0)
	g.phase = floatSlice(cfg["phase"], values, 0)
	g.stddev = floatSlice(cfg["stddev"], values, 0.2)

	if v, ok := cfg["rate"].(float64); ok {
		g.rateHz = v
	}
	if v, ok := cfg["realtime"].(bool); ok {
		g.realtime = v
	}
	if v, ok := cfg["limit"].(float64); ok {
		g.limit = int64(v)
	}

	return g.Transition(node.Parsed)
}

func (g *Generator) Check() error {
	if g.realtime && g.rateHz <= 0 {
		return coreerr.New(coreerr.KindConfig, "signal: 'rate' must be positive in realtime mode")
	}
	return g.Transition(node.Checked)
}

func (g *Generator) Prepare() error {
	sigs := make([]*signal.Signal, len(g.waves))
	for i, w := range g.waves {
		sigs[i] = signal.New(w.String(), "", signal.Float, signal.Value{})
	}
	g.InSigs = signal.NewList(sigs...)
	return g.Transition(node.Prepared)
}

func (g *Generator) Start() error {
	g.started = time.Now()
	g.counter = 0
	g.last = append([]float64(nil), g.offset...)
	g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))

	if g.realtime {
		timer, err := iopoll.NewRateTimer(g.rateHz)
		if err != nil {
			return coreerr.Wrap(coreerr.KindFatalIO, err, "signal: rate timer failed")
		}
		g.timer = timer
	}
	return g.Transition(node.Started)
}

func (g *Generator) Stop() error {
	if g.State() != node.Stopping {
		if err := g.Transition(node.Stopping); err != nil {
			return err
		}
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	return g.Transition(node.Stopped)
}

func (g *Generator) Restart() error {
	if err := g.Stop(); err != nil {
		return err
	}
	if err := g.Transition(node.Prepared); err != nil {
		return err
	}
	return g.Start()
}

// Read produces exactly one sample per call (spec.md §4.5: a source
// node's read() returns one ready record per invocation).
func (g *Generator) Read(out []*sample.Sample) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}
	if g.limit >= 0 && int64(g.counter) >= g.limit {
		_ = g.Transition(node.Stopping)
		return 0, coreerr.New(coreerr.KindRuntime, "signal: reached configured limit")
	}

	if g.realtime && g.timer != nil {
		// Wait (at most one period) for the next tick so the configured
		// rate paces every caller: the polled Path loop finds the timer
		// fd already readable here, the single-source fast path never
		// polls it.
		_, _ = iopoll.Wait([]uintptr{g.timer.Fd()}, time.Duration(float64(time.Second)/g.rateHz))
		g.timer.Drain()
	}

	now := time.Now()
	running := now.Sub(g.started).Seconds()

	s := out[0]
	s.Signals = g.InSigs
	n := len(g.waves)
	if cap(s.Data) < n {
		s.Data = make([]signal.Value, n)
	} else {
		s.Data = s.Data[:n]
	}
	for i, w := range g.waves {
		s.Data[i] = signal.Value{F: g.evaluate(w, i, running)}
	}
	s.Length = n
	s.Sequence = g.counter
	s.TSOrigin = sample.Timestamp{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}
	s.Flags = sample.HasSequence | sample.HasTSOrigin | sample.HasData

	g.counter++

	return 1, nil
}

func (g *Generator) evaluate(w Waveform, i int, running float64) float64 {
	switch w {
	case WaveConstant:
		return g.offset[i] + g.amplitude[i]
	case WaveSine:
		return g.offset[i] + g.amplitude[i]*math.Sin(running*g.frequency[i]*2*math.Pi+g.phase[i])
	case WaveTriangle:
		return g.offset[i] + g.amplitude[i]*(math.Abs(math.Mod(running*g.frequency[i]+(g.phase[i]/(2*math.Pi)), 1)-0.5)-0.25)*4
	case WaveSquare:
		if math.Mod(running*g.frequency[i]+(g.phase[i]/(2*math.Pi)), 1) < 0.5 {
			return g.offset[i] - g.amplitude[i]
		}
		return g.offset[i] + g.amplitude[i]
	case WaveRamp:
		return g.offset[i] + g.amplitude[i]*math.Mod(running, g.frequency[i])
	case WaveCounter:
		return g.offset[i] + g.amplitude[i]*float64(g.counter)
	case WaveRandom:
		g.last[i] += g.rng.NormFloat64() * g.stddev[i]
		return g.last[i]
	default:
		return 0
	}
}

// Write is unsupported: a generator produces samples, it never
// consumes them.
func (g *Generator) Write(in []*sample.Sample) (int, error) {
	return 0, coreerr.New(coreerr.KindLogic, "signal: generator is a source-only node")
}

func (g *Generator) PollFDs() []uintptr {
	if g.timer != nil {
		return []uintptr{g.timer.Fd()}
	}
	return nil
}

func (g *Generator) NetemFDs() []uintptr { return nil }
