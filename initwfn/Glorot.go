package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig describes Glorot Uniform weight initialization. The
// gain rescales the sampling interval; a gain of 1.0 gives the
// standard Glorot bounds, which keep activation variance roughly
// constant across tanh and ReLU layers.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new serializable Glorot Uniform weight
// initializer with the argument gain
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes Glorot Normal weight initialization, the
// Gaussian counterpart of GlorotUConfig.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new serializable Glorot Normal weight
// initializer with the argument gain
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}
