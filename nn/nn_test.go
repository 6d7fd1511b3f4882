// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/born-ml/lle/nn"
	"github.com/born-ml/lle/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicModel(t *testing.T) {
	model := nn.NewModel(nn.NewDense(3, 4), nn.NewTanh(), nn.NewDense(4, 2))
	x := tensor.Ones(5, 3)

	pred, trace, err := model.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 2}, pred.Shape())

	grad, err := nn.NewMSELoss().Backward(pred, tensor.Zeros(5, 2))
	require.NoError(t, err)
	require.NoError(t, model.Backward(trace, grad))

	for _, p := range model.Parameters() {
		require.NotNil(t, p.Grad(), p.Name())
		assert.Equal(t, p.Shape(), p.Grad().Shape(), p.Name())
	}
	assert.Contains(t, nn.DefaultRegistry().Types(), "transformer_block")
}
