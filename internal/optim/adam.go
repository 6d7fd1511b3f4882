package optim

import (
	"github.com/born-ml/lle/internal/nn"
	"github.com/chewxy/math32"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The step counter t lives in the State and advances once per Step call.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	opt := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	baseLR
	beta1 float32
	beta2 float32
	eps   float32
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

func (c AdamConfig) withDefaults() AdamConfig {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Betas[0] == 0 {
		c.Betas[0] = 0.9
	}
	if c.Betas[1] == 0 {
		c.Betas[1] = 0.999
	}
	if c.Eps == 0 {
		c.Eps = 1e-8
	}
	return c
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	config = config.withDefaults()
	return &Adam{
		baseLR: baseLR{lr: config.LR},
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
	}
}

// Name returns "adam".
func (a *Adam) Name() string { return "adam" }

// NewState allocates first and second moment buffers per parameter.
func (a *Adam) NewState(params []*nn.Parameter) *State {
	return newState(params, 2)
}

// Step performs a single optimization step using Adam algorithm.
func (a *Adam) Step(state *State, params []*nn.Parameter) error {
	return state.apply("Adam.Step", params, a.rule(state))
}

// rule returns the per-parameter Adam update for the state's next step.
func (a *Adam) rule(state *State) update {
	lr, beta1, beta2, eps := a.lr, a.beta1, a.beta2, a.eps
	return func(data, grad []float32, sl *slot) {
		// apply has already advanced the counter when the rule runs.
		t := float32(state.step)
		biasCorrection1 := 1 - math32.Pow(beta1, t)
		biasCorrection2 := 1 - math32.Pow(beta2, t)

		m, v := sl.first.Data(), sl.second.Data()
		for i, g := range grad {
			m[i] = beta1*m[i] + (1-beta1)*g
			v[i] = beta2*v[i] + (1-beta2)*g*g
			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			data[i] -= lr * mHat / (math32.Sqrt(vHat) + eps)
		}
	}
}
