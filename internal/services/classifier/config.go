package classifier

// TrainOption configures training.
type TrainOption func(*TrainConfig)

// TrainConfig holds model hyper-parameters.
type TrainConfig struct {
	MaxFeatures  int
	Epochs       int
	LearningRate float64
	L2           float64
}

func defaultTrainConfig() *TrainConfig {
	return &TrainConfig{
		MaxFeatures:  100,
		Epochs:       1000,
		LearningRate: 0.5,
		L2:           1e-3,
	}
}

// WithMaxFeatures bounds the lexical vocabulary size.
func WithMaxFeatures(n int) TrainOption {
	return func(c *TrainConfig) {
		if n > 0 {
			c.MaxFeatures = n
		}
	}
}

// WithEpochs sets the number of full-batch gradient steps.
func WithEpochs(n int) TrainOption {
	return func(c *TrainConfig) {
		if n > 0 {
			c.Epochs = n
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(lr float64) TrainOption {
	return func(c *TrainConfig) {
		if lr > 0 {
			c.LearningRate = lr
		}
	}
}

// WithL2 sets the ridge penalty on feature weights.
func WithL2(l2 float64) TrainOption {
	return func(c *TrainConfig) {
		if l2 >= 0 {
			c.L2 = l2
		}
	}
}
