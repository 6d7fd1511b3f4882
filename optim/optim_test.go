// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"testing"

	"github.com/born-ml/lle/nn"
	"github.com/born-ml/lle/optim"
	"github.com/born-ml/lle/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicSGDStep(t *testing.T) {
	p := nn.NewParameter("w", tensor.New([]float32{1, 2}, 2))
	params := []*nn.Parameter{p}

	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	state := opt.NewState(params)

	p.SetGrad(tensor.New([]float32{0.1, 0.2}, 2))
	require.NoError(t, opt.Step(state, params))
	assert.InDeltaSlice(t, []float32{0.99, 1.98}, p.Tensor().Data(), 1e-6)
	assert.Equal(t, 1, state.Steps())

	p.ZeroGrad()
	require.ErrorIs(t, opt.Step(state, params), optim.ErrMissingGradient)
}

func TestPublicStepLR(t *testing.T) {
	opt, err := optim.New("adam", 0.1, 0)
	require.NoError(t, err)

	sched, err := optim.NewStepLR(opt, 2, 0.5)
	require.NoError(t, err)

	sched.Step(3)
	assert.InDelta(t, 0.05, opt.LR(), 1e-6)

	_, err = optim.New("lbfgs", 0.1, 0)
	require.Error(t, err)
}
