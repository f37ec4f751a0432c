package neuralnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// PhaseLayer maps the phases of In incoming units to the phases of Out units.
//
// Theta[i][j] rotates the phasor arriving from unit i before unit j sums it,
// Lambda[j] is the reference phasor subtracted from the sum and Delta[j] is
// the raw inversion degree setting the base angle of unit j.
type PhaseLayer struct {
	Theta  *mat.Dense
	Lambda *mat.VecDense
	Delta  *mat.VecDense
}

// LayerGradients accumulates ∂L/∂param for every parameter of one PhaseLayer.
type LayerGradients struct {
	Theta  *mat.Dense
	Lambda *mat.VecDense
	Delta  *mat.VecDense
}

func newPhaseLayer(in, out int) *PhaseLayer {
	return &PhaseLayer{
		Theta:  mat.NewDense(in, out, nil),
		Lambda: mat.NewVecDense(out, nil),
		Delta:  mat.NewVecDense(out, nil),
	}
}

func newLayerGradients(in, out int) *LayerGradients {
	return &LayerGradients{
		Theta:  mat.NewDense(in, out, nil),
		Lambda: mat.NewVecDense(out, nil),
		Delta:  mat.NewVecDense(out, nil),
	}
}

// Dims returns the number of incoming and outgoing units.
func (l *PhaseLayer) Dims() (in, out int) {
	return l.Theta.Dims()
}

// randomize draws every parameter uniformly from [-pi, pi], unit by unit.
func (l *PhaseLayer) randomize(rng *rand.Rand) {
	in, out := l.Dims()
	for j := 0; j < out; j++ {
		for i := 0; i < in; i++ {
			l.Theta.Set(i, j, uniformPhase(rng))
		}
		l.Lambda.SetVec(j, uniformPhase(rng))
		l.Delta.SetVec(j, uniformPhase(rng))
	}
}

func uniformPhase(rng *rand.Rand) float64 {
	return 2*math.Pi*rng.Float64() - math.Pi
}

// forward writes the aggregate phasor and the output phase of every unit.
// Every unit of the next layer receives the same phase out[j].
func (l *PhaseLayer) forward(phases, re, im, out []float64) {
	in, n := l.Dims()
	for j := 0; j < n; j++ {
		var sre, sim float64
		for i := 0; i < in; i++ {
			u := phases[i] + l.Theta.At(i, j)
			sre += math.Cos(u)
			sim += math.Sin(u)
		}
		lambda := l.Lambda.AtVec(j)
		sre -= math.Cos(lambda)
		sim -= math.Sin(lambda)

		re[j] = sre
		im[j] = sim
		// atan2(0, 0) is 0
		out[j] = baseAngle(l.Delta.AtVec(j)) - math.Atan2(sim, sre)
	}
}

// backward adds the contribution of one pattern to g. upstream[j] is ∂L/∂out[j].
// If down is not nil, ∂L/∂phases[i] is added to down[i].
func (l *PhaseLayer) backward(phases, re, im, upstream []float64, g *LayerGradients, down []float64) {
	in, n := l.Dims()
	for j := 0; j < n; j++ {
		up := upstream[j]
		g.Delta.SetVec(j, g.Delta.AtVec(j)+up*baseAngleDerivative(l.Delta.AtVec(j)))

		denom := re[j]*re[j] + im[j]*im[j]
		if denom == 0 {
			// the measured phase is flat at the origin
			continue
		}
		for i := 0; i < in; i++ {
			u := phases[i] + l.Theta.At(i, j)
			v := -up * (math.Cos(u)*re[j] + math.Sin(u)*im[j]) / denom
			g.Theta.Set(i, j, g.Theta.At(i, j)+v)
			if down != nil {
				down[i] += v
			}
		}
		lambda := l.Lambda.AtVec(j)
		v := up * (math.Cos(lambda)*re[j] + math.Sin(lambda)*im[j]) / denom
		g.Lambda.SetVec(j, g.Lambda.AtVec(j)+v)
	}
}

// step moves every parameter against its gradient: p -= rate * g.
func (l *PhaseLayer) step(g *LayerGradients, rate float64) {
	var theta mat.Dense
	theta.Scale(-rate, g.Theta)
	l.Theta.Add(l.Theta, &theta)
	l.Lambda.AddScaledVec(l.Lambda, -rate, g.Lambda)
	l.Delta.AddScaledVec(l.Delta, -rate, g.Delta)
}

func (l *PhaseLayer) clone() *PhaseLayer {
	return &PhaseLayer{
		Theta:  mat.DenseCopyOf(l.Theta),
		Lambda: mat.VecDenseCopyOf(l.Lambda),
		Delta:  mat.VecDenseCopyOf(l.Delta),
	}
}

// Zero clears every accumulator entry.
func (g *LayerGradients) Zero() {
	g.Theta.Zero()
	g.Lambda.Zero()
	g.Delta.Zero()
}

// Add sums other into g.
func (g *LayerGradients) Add(other *LayerGradients) {
	g.Theta.Add(g.Theta, other.Theta)
	g.Lambda.AddVec(g.Lambda, other.Lambda)
	g.Delta.AddVec(g.Delta, other.Delta)
}

// flat layout is Theta row-major, then Lambda, then Delta. It is shared by
// parameters and gradients.
func appendFlat(dst []float64, theta *mat.Dense, lambda, delta *mat.VecDense) []float64 {
	r, c := theta.Dims()
	for i := 0; i < r; i++ {
		dst = append(dst, theta.RawRowView(i)[:c]...)
	}
	dst = append(dst, lambda.RawVector().Data[:lambda.Len()]...)
	return append(dst, delta.RawVector().Data[:delta.Len()]...)
}

func setFlat(src []float64, theta *mat.Dense, lambda, delta *mat.VecDense) []float64 {
	r, c := theta.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			theta.Set(i, j, src[0])
			src = src[1:]
		}
	}
	for j := 0; j < lambda.Len(); j++ {
		lambda.SetVec(j, src[j])
	}
	src = src[lambda.Len():]
	for j := 0; j < delta.Len(); j++ {
		delta.SetVec(j, src[j])
	}
	return src[delta.Len():]
}

// Debug
func (l *PhaseLayer) String() string {
	var sb strings.Builder
	in, out := l.Dims()
	for j := 0; j < out; j++ {
		sb.WriteString(fmt.Sprintf("Unit %d: lambda=%.4f delta=%.4f theta=[", j, l.Lambda.AtVec(j), l.Delta.AtVec(j)))
		for i := 0; i < in; i++ {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%.4f", l.Theta.At(i, j)))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
