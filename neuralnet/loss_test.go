package neuralnet

import "testing"

func TestHalfSquaredErrorCompute(t *testing.T) {
	h := HalfSquaredError{}
	output := []float64{0.5, 0.25}
	target := []float64{1.0, 0.0}
	want := 0.5 * (0.25 + 0.0625)
	if got := h.Compute(output, target); !floatEquals(got, want, 1e-12) {
		t.Errorf("HalfSquaredError.Compute = %v; want %v", got, want)
	}
}

func TestHalfSquaredErrorGradient(t *testing.T) {
	h := HalfSquaredError{}
	output := []float64{0.5, 0.5}
	target := []float64{1.0, 0.0}
	grad := h.Gradient(output, target)
	want := []float64{-0.5, 0.5}
	for i := range grad {
		if grad[i] != want[i] {
			t.Errorf("HalfSquaredError.Gradient[%d] = %v; want %v", i, grad[i], want[i])
		}
	}
}
