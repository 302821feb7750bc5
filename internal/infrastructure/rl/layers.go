package rl

import (
	"math"
	"math/rand"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"gonum.org/v1/gonum/mat"
)

// lnEpsilon stabilizes the layer-norm variance denominator.
const lnEpsilon = 1e-5

// headInitBound is the uniform init range of the actor and critic output
// layers; a deliberately small range keeps initial outputs near zero.
const headInitBound = 0.003

// parameter is one named trainable tensor with its gradient. Data and Grad
// are live views into the owning layer's storage.
type parameter struct {
	Name string
	Data []float64
	Grad []float64
}

// denseLayer is a fully-connected layer over batch-major inputs:
// y = x*W + b with W of shape in x out.
type denseLayer struct {
	name string
	in   int
	out  int

	w *mat.Dense
	b []float64

	gradW *mat.Dense
	gradB []float64

	lastX *mat.Dense
}

// newDenseLayer initializes weights and biases uniformly in [-bound, bound].
// A non-positive bound selects the fan-in scaling 1/sqrt(in).
func newDenseLayer(name string, in, out int, bound float64, rng *rand.Rand) *denseLayer {
	if bound <= 0 {
		bound = 1.0 / math.Sqrt(float64(in))
	}
	l := &denseLayer{
		name:  name,
		in:    in,
		out:   out,
		w:     mat.NewDense(in, out, nil),
		b:     make([]float64, out),
		gradW: mat.NewDense(in, out, nil),
		gradB: make([]float64, out),
	}
	data := l.w.RawMatrix().Data
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := range l.b {
		l.b[i] = (rng.Float64()*2 - 1) * bound
	}
	return l
}

func (l *denseLayer) forward(x *mat.Dense, _ domainrl.Mode) *mat.Dense {
	rows, _ := x.Dims()
	y := mat.NewDense(rows, l.out, nil)
	y.Mul(x, l.w)
	for i := 0; i < rows; i++ {
		row := y.RawRowView(i)
		for j := range row {
			row[j] += l.b[j]
		}
	}
	l.lastX = x
	return y
}

// backward consumes dL/dy, overwrites the layer gradients, and returns dL/dx.
func (l *denseLayer) backward(dy *mat.Dense) *mat.Dense {
	rows, _ := dy.Dims()

	l.gradW.Mul(l.lastX.T(), dy)
	for j := 0; j < l.out; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += dy.At(i, j)
		}
		l.gradB[j] = sum
	}

	dx := mat.NewDense(rows, l.in, nil)
	dx.Mul(dy, l.w.T())
	return dx
}

func (l *denseLayer) parameters() []parameter {
	return []parameter{
		{Name: l.name + ".weight", Data: l.w.RawMatrix().Data, Grad: l.gradW.RawMatrix().Data},
		{Name: l.name + ".bias", Data: l.b, Grad: l.gradB},
	}
}

// layerNormLayer normalizes each sample across its features with a learnable
// per-feature gain and bias. Statistics are computed per sample, so train and
// eval modes produce identical outputs; the mode argument is part of the
// forward contract shared by all layers.
type layerNormLayer struct {
	name string
	dim  int

	gain []float64
	bias []float64

	gradGain []float64
	gradBias []float64

	lastXHat   *mat.Dense
	lastInvStd []float64
}

func newLayerNorm(name string, dim int) *layerNormLayer {
	l := &layerNormLayer{
		name:     name,
		dim:      dim,
		gain:     make([]float64, dim),
		bias:     make([]float64, dim),
		gradGain: make([]float64, dim),
		gradBias: make([]float64, dim),
	}
	for i := range l.gain {
		l.gain[i] = 1.0
	}
	return l
}

func (l *layerNormLayer) forward(x *mat.Dense, _ domainrl.Mode) *mat.Dense {
	rows, _ := x.Dims()
	y := mat.NewDense(rows, l.dim, nil)
	xhat := mat.NewDense(rows, l.dim, nil)
	invStd := make([]float64, rows)

	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)

		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(l.dim)

		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float64(l.dim)

		inv := 1.0 / math.Sqrt(variance+lnEpsilon)
		invStd[i] = inv

		xhatRow := xhat.RawRowView(i)
		yRow := y.RawRowView(i)
		for j, v := range row {
			h := (v - mean) * inv
			xhatRow[j] = h
			yRow[j] = l.gain[j]*h + l.bias[j]
		}
	}

	l.lastXHat = xhat
	l.lastInvStd = invStd
	return y
}

func (l *layerNormLayer) backward(dy *mat.Dense) *mat.Dense {
	rows, _ := dy.Dims()
	n := float64(l.dim)
	dx := mat.NewDense(rows, l.dim, nil)

	for j := 0; j < l.dim; j++ {
		l.gradGain[j] = 0
		l.gradBias[j] = 0
	}

	for i := 0; i < rows; i++ {
		dyRow := dy.RawRowView(i)
		xhatRow := l.lastXHat.RawRowView(i)
		dxRow := dx.RawRowView(i)

		var m1, m2 float64
		for j := 0; j < l.dim; j++ {
			l.gradGain[j] += dyRow[j] * xhatRow[j]
			l.gradBias[j] += dyRow[j]

			dxhat := dyRow[j] * l.gain[j]
			m1 += dxhat
			m2 += dxhat * xhatRow[j]
		}
		m1 /= n
		m2 /= n

		inv := l.lastInvStd[i]
		for j := 0; j < l.dim; j++ {
			dxhat := dyRow[j] * l.gain[j]
			dxRow[j] = inv * (dxhat - m1 - xhatRow[j]*m2)
		}
	}
	return dx
}

func (l *layerNormLayer) parameters() []parameter {
	return []parameter{
		{Name: l.name + ".gain", Data: l.gain, Grad: l.gradGain},
		{Name: l.name + ".bias", Data: l.bias, Grad: l.gradBias},
	}
}

// reluLayer is a rectified-linear activation.
type reluLayer struct {
	lastMask *mat.Dense
}

func (l *reluLayer) forward(x *mat.Dense, _ domainrl.Mode) *mat.Dense {
	rows, cols := x.Dims()
	y := mat.NewDense(rows, cols, nil)
	mask := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		xRow := x.RawRowView(i)
		yRow := y.RawRowView(i)
		mRow := mask.RawRowView(i)
		for j, v := range xRow {
			if v > 0 {
				yRow[j] = v
				mRow[j] = 1
			}
		}
	}
	l.lastMask = mask
	return y
}

func (l *reluLayer) backward(dy *mat.Dense) *mat.Dense {
	rows, cols := dy.Dims()
	dx := mat.NewDense(rows, cols, nil)
	dx.MulElem(dy, l.lastMask)
	return dx
}

// tanhLayer is a bounded output activation.
type tanhLayer struct {
	lastY *mat.Dense
}

func (l *tanhLayer) forward(x *mat.Dense, _ domainrl.Mode) *mat.Dense {
	rows, cols := x.Dims()
	y := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		xRow := x.RawRowView(i)
		yRow := y.RawRowView(i)
		for j, v := range xRow {
			yRow[j] = math.Tanh(v)
		}
	}
	l.lastY = y
	return y
}

func (l *tanhLayer) backward(dy *mat.Dense) *mat.Dense {
	rows, cols := dy.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		dyRow := dy.RawRowView(i)
		yRow := l.lastY.RawRowView(i)
		dxRow := dx.RawRowView(i)
		for j := range dxRow {
			dxRow[j] = dyRow[j] * (1 - yRow[j]*yRow[j])
		}
	}
	return dx
}

// hcat concatenates batch-major tensors column-wise, skipping nils.
func hcat(parts ...*mat.Dense) *mat.Dense {
	var rows, cols int
	for _, p := range parts {
		if p == nil {
			continue
		}
		r, c := p.Dims()
		rows = r
		cols += c
	}
	out := mat.NewDense(rows, cols, nil)
	offset := 0
	for _, p := range parts {
		if p == nil {
			continue
		}
		r, c := p.Dims()
		for i := 0; i < r; i++ {
			copy(out.RawRowView(i)[offset:offset+c], p.RawRowView(i))
		}
		offset += c
	}
	return out
}
