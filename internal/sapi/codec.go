package sapi

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// FormatQP is the binary problem and answer format.
const FormatQP = "qp"

// EncodeProblem encodes a problem already in the solver's labels. lin holds
// one float64 per qubit label with NaN for unused qubits; quad holds one
// float64 per solver coupler whose qubits are both used, in the solver's
// coupler order.
func EncodeProblem(p *spinglass.ProblemInstance, props *SolverProperties) (ProblemData, error) {
	working := make(map[int]bool, len(props.Qubits))
	for _, q := range props.Qubits {
		working[q] = true
	}
	lin := make([]float64, props.NumQubits)
	for i := range lin {
		lin[i] = math.NaN()
	}
	for _, q := range p.Graph.Nodes() {
		if q < 0 || q >= props.NumQubits || !working[q] {
			return ProblemData{}, fmt.Errorf("qubit %d is not a working qubit of the solver", q)
		}
		lin[q] = p.Biases[q]
	}

	available := make(map[topology.Edge]bool, len(props.Couplers))
	var quad []float64
	for _, c := range props.Couplers {
		e := topology.NewEdge(c[0], c[1])
		available[e] = true
		if e.U >= props.NumQubits || e.V >= props.NumQubits || math.IsNaN(lin[e.U]) || math.IsNaN(lin[e.V]) {
			continue
		}
		quad = append(quad, p.Couplings[e])
	}
	for e := range p.Couplings {
		if !available[e] {
			return ProblemData{}, fmt.Errorf("coupler (%d, %d) is not a working coupler of the solver", e.U, e.V)
		}
	}

	return ProblemData{Format: FormatQP, Lin: encodeFloat64s(lin), Quad: encodeFloat64s(quad)}, nil
}

// DecodeProblem is the inverse of EncodeProblem.
func DecodeProblem(d ProblemData, props *SolverProperties) (map[int]float64, map[topology.Edge]float64, error) {
	if d.Format != FormatQP {
		return nil, nil, fmt.Errorf("unsupported problem format %q", d.Format)
	}
	lin, err := decodeFloat64s(d.Lin)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding lin: %w", err)
	}
	if len(lin) != props.NumQubits {
		return nil, nil, fmt.Errorf("lin has %d entries, solver has %d qubits", len(lin), props.NumQubits)
	}
	quad, err := decodeFloat64s(d.Quad)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding quad: %w", err)
	}

	h := make(map[int]float64)
	for q, v := range lin {
		if !math.IsNaN(v) {
			h[q] = v
		}
	}
	j := make(map[topology.Edge]float64)
	i := 0
	for _, c := range props.Couplers {
		_, okU := h[c[0]]
		_, okV := h[c[1]]
		if !okU || !okV {
			continue
		}
		if i >= len(quad) {
			return nil, nil, fmt.Errorf("quad has %d entries, problem uses more couplers", len(quad))
		}
		if quad[i] != 0 {
			j[topology.NewEdge(c[0], c[1])] = quad[i]
		}
		i++
	}
	if i != len(quad) {
		return nil, nil, fmt.Errorf("quad has %d entries, problem uses %d couplers", len(quad), i)
	}
	return h, j, nil
}

// EncodeAnswer encodes a sample set. Solutions are packed one row per sample,
// most significant bit first, with bit 1 for spin +1.
func EncodeAnswer(ss *spinglass.SampleSet, numVariables int) *Answer {
	vars := make([]int32, len(ss.Variables))
	for i, v := range ss.Variables {
		vars[i] = int32(v)
	}
	energies := make([]float64, len(ss.Samples))
	occ := make([]int32, len(ss.Samples))
	rowBytes := (len(ss.Variables) + 7) / 8
	solutions := make([]byte, rowBytes*len(ss.Samples))
	for i, s := range ss.Samples {
		energies[i] = s.Energy
		occ[i] = int32(s.Occurrences)
		row := solutions[i*rowBytes : (i+1)*rowBytes]
		for k, spin := range s.Spins {
			if spin > 0 {
				row[k/8] |= 0x80 >> (k % 8)
			}
		}
	}
	return &Answer{
		Format:          FormatQP,
		NumVariables:    numVariables,
		ActiveVariables: encodeInt32s(vars),
		Energies:        encodeFloat64s(energies),
		NumOccurrences:  encodeInt32s(occ),
		Solutions:       base64.StdEncoding.EncodeToString(solutions),
		Timing:          ss.Timing,
	}
}

// DecodeAnswer decodes a qp answer into a sample set.
func DecodeAnswer(a *Answer) (*spinglass.SampleSet, error) {
	if a == nil {
		return nil, fmt.Errorf("problem completed without an answer")
	}
	if a.Format != FormatQP {
		return nil, fmt.Errorf("unsupported answer format %q", a.Format)
	}
	vars, err := decodeInt32s(a.ActiveVariables)
	if err != nil {
		return nil, fmt.Errorf("decoding active_variables: %w", err)
	}
	energies, err := decodeFloat64s(a.Energies)
	if err != nil {
		return nil, fmt.Errorf("decoding energies: %w", err)
	}
	occ, err := decodeInt32s(a.NumOccurrences)
	if err != nil {
		return nil, fmt.Errorf("decoding num_occurrences: %w", err)
	}
	if len(occ) != len(energies) {
		return nil, fmt.Errorf("answer has %d energies but %d occurrence counts", len(energies), len(occ))
	}
	solutions, err := base64.StdEncoding.DecodeString(a.Solutions)
	if err != nil {
		return nil, fmt.Errorf("decoding solutions: %w", err)
	}
	rowBytes := (len(vars) + 7) / 8
	if len(solutions) != rowBytes*len(energies) {
		return nil, fmt.Errorf("solutions hold %d bytes, want %d", len(solutions), rowBytes*len(energies))
	}

	ss := &spinglass.SampleSet{
		Variables: make([]int, len(vars)),
		Samples:   make([]spinglass.Sample, len(energies)),
		Timing:    a.Timing,
	}
	for i, v := range vars {
		ss.Variables[i] = int(v)
	}
	for i := range energies {
		row := solutions[i*rowBytes : (i+1)*rowBytes]
		spins := make([]int8, len(vars))
		for k := range spins {
			if row[k/8]&(0x80>>(k%8)) != 0 {
				spins[k] = 1
			} else {
				spins[k] = -1
			}
		}
		ss.Samples[i] = spinglass.Sample{Spins: spins, Energy: energies[i], Occurrences: int(occ[i])}
	}
	return ss, nil
}

func encodeFloat64s(v []float64) string {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeFloat64s(s string) ([]float64, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 8", len(buf))
	}
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return out, nil
}

func encodeInt32s(v []int32) string {
	buf := make([]byte, 4*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(n))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeInt32s(s string) ([]int32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(buf))
	}
	out := make([]int32, len(buf)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}
