package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithL2 sets the ridge penalty on the coefficients
func WithL2(l2 float64) Option {
	return func(lr *LinearRegression) {
		lr.L2 = l2
	}
}

// WithLearningRate sets the step size used by PartialFit
func WithLearningRate(rate float64) Option {
	return func(lr *LinearRegression) {
		lr.LearningRate = rate
	}
}

// WithMaxGradNorm clips PartialFit gradients to the given L2 norm
func WithMaxGradNorm(norm float64) Option {
	return func(lr *LinearRegression) {
		lr.MaxGradNorm = norm
	}
}
