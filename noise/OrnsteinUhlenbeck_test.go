package noise

import (
	"math"
	"testing"
)

// TestOrnsteinUhlenbeckMeanReversion ensures that with sigma == 0 the
// process decays deterministically toward its mean from any starting
// point
func TestOrnsteinUhlenbeckMeanReversion(t *testing.T) {
	const theta, mu = 0.15, 0.0

	process, err := NewOrnsteinUhlenbeck(1, theta, 0.0, mu, 14)
	if err != nil {
		t.Fatal(err)
	}

	// Push the process away from its mean
	process.state[0] = 1.0

	last := math.Abs(process.state[0] - mu)
	for i := 0; i < 50; i++ {
		sample := process.Sample()

		distance := math.Abs(sample[0] - mu)
		if distance >= last {
			t.Fatalf("process did not revert toward its mean at step %v: "+
				"|%v - %v| >= %v", i, sample[0], mu, last)
		}

		// With sigma == 0 the update is exactly x <- x + theta*(mu-x)
		expected := last * (1.0 - theta)
		if math.Abs(distance-expected) > 1e-12 {
			t.Fatalf("incorrect decay at step %v \n\twant(%v)\n\thave(%v)",
				i, expected, distance)
		}
		last = distance
	}
}

// TestOrnsteinUhlenbeckReset ensures that Reset returns the process
// to its mean
func TestOrnsteinUhlenbeckReset(t *testing.T) {
	process, err := NewDefaultOrnsteinUhlenbeck(3, 42)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		process.Sample()
	}

	process.Reset()
	for i, value := range process.state {
		if value != DefaultMu {
			t.Errorf("dimension %v not reset \n\twant(%v)\n\thave(%v)", i,
				DefaultMu, value)
		}
	}
}

// TestOrnsteinUhlenbeckDeterministicSeed ensures that two processes
// constructed with the same seed produce identical noise
func TestOrnsteinUhlenbeckDeterministicSeed(t *testing.T) {
	first, err := NewDefaultOrnsteinUhlenbeck(2, 1713)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewDefaultOrnsteinUhlenbeck(2, 1713)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 25; i++ {
		a, b := first.Sample(), second.Sample()
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("identically seeded processes diverged at "+
					"step %v: %v != %v", i, a[j], b[j])
			}
		}
	}
}

// TestOrnsteinUhlenbeckInvalidConstruction ensures that illegal
// hyperparameters are rejected
func TestOrnsteinUhlenbeckInvalidConstruction(t *testing.T) {
	if _, err := NewOrnsteinUhlenbeck(0, 0.15, 0.2, 0.0, 14); err == nil {
		t.Error("non-positive dims should be rejected")
	}
	if _, err := NewOrnsteinUhlenbeck(1, -0.15, 0.2, 0.0, 14); err == nil {
		t.Error("negative theta should be rejected")
	}
	if _, err := NewOrnsteinUhlenbeck(1, 0.15, -0.2, 0.0, 14); err == nil {
		t.Error("negative sigma should be rejected")
	}
}
