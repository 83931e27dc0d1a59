package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMSE(t *testing.T) {
	loss, grad := MSE([]float64{1, 2}, []float64{2, 2})
	assert.Equal(t, 0.5, loss)
	assert.Equal(t, []float64{1, 0}, grad)

	loss, grad = MSE(nil, nil)
	assert.Zero(t, loss)
	assert.Nil(t, grad)
}

func TestSGD(t *testing.T) {
	opt := NewSGD(0.5)
	w := []float64{1, 1}
	opt.Step(w, []float64{2, -2})
	assert.Equal(t, []float64{0, 2}, w)
	assert.Equal(t, 0.75, opt.StepScalar(1, 0.5))
}
