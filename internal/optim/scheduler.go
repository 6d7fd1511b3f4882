package optim

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Scheduler adjusts an optimizer's learning rate as a function of the epoch.
type Scheduler interface {
	// Step sets the learning rate for epoch (0-based).
	Step(epoch int)
}

// StepLR decays the learning rate by gamma every stepSize epochs:
//
//	lr = initial_lr * gamma^floor(epoch / step_size)
//
// The initial learning rate is captured when the scheduler is created.
type StepLR struct {
	opt       Optimizer
	stepSize  int
	gamma     float32
	initialLR float32
}

// NewStepLR creates a StepLR schedule. A zero gamma selects 0.1.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) (*StepLR, error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("step_lr: step size must be positive, got %d", stepSize)
	}
	if gamma == 0 {
		gamma = 0.1
	}
	return &StepLR{opt: opt, stepSize: stepSize, gamma: gamma, initialLR: opt.LR()}, nil
}

// Step implements Scheduler.
func (s *StepLR) Step(epoch int) {
	s.opt.SetLR(s.initialLR * math32.Pow(s.gamma, float32(epoch/s.stepSize)))
}

// CosineAnnealing anneals the learning rate along half a cosine period:
//
//	lr = eta_min + (initial_lr - eta_min) * (1 + cos(pi * epoch / t_max)) / 2
type CosineAnnealing struct {
	opt       Optimizer
	tMax      int
	etaMin    float32
	initialLR float32
}

// NewCosineAnnealing creates a cosine annealing schedule.
func NewCosineAnnealing(opt Optimizer, tMax int, etaMin float32) (*CosineAnnealing, error) {
	if tMax <= 0 {
		return nil, fmt.Errorf("cosine: t_max must be positive, got %d", tMax)
	}
	return &CosineAnnealing{opt: opt, tMax: tMax, etaMin: etaMin, initialLR: opt.LR()}, nil
}

// Step implements Scheduler.
func (c *CosineAnnealing) Step(epoch int) {
	cos := math32.Cos(math32.Pi * float32(epoch) / float32(c.tMax))
	c.opt.SetLR(c.etaMin + (c.initialLR-c.etaMin)*(1+cos)/2)
}
