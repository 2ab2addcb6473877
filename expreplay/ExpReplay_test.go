package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/timestep"
)

// transitionWithReward returns a Transition whose reward tags the
// transition so tests can identify which slots were sampled
func transitionWithReward(reward float64) timestep.Transition {
	state := mat.NewVecDense(2, []float64{reward, -reward})
	action := mat.NewVecDense(1, []float64{reward / 2})

	return timestep.Transition{
		State:      state,
		Action:     action,
		Reward:     reward,
		Discount:   1.0,
		NextState:  state,
		NextAction: action,
	}
}

// TestCacheErrors ensures that sampling an empty or insufficiently
// filled buffer returns the appropriate error
func TestCacheErrors(t *testing.T) {
	buffer, err := New(NewUniformSelector(2, 14), 3, 5, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, _, _, _, err = buffer.Sample()
	if !IsEmptyBuffer(err) {
		t.Errorf("expected empty buffer error, got: %v", err)
	}

	if err := buffer.Add(transitionWithReward(1.0)); err != nil {
		t.Fatal(err)
	}
	_, _, _, _, _, _, err = buffer.Sample()
	if !IsInsufficientSamples(err) {
		t.Errorf("expected insufficient samples error, got: %v", err)
	}
	if IsEmptyBuffer(err) {
		t.Error("insufficient samples error misreported as empty buffer")
	}

	if err := buffer.Add(transitionWithReward(2.0)); err != nil {
		t.Fatal(err)
	}
	if err := buffer.Add(transitionWithReward(3.0)); err != nil {
		t.Fatal(err)
	}
	_, _, _, _, _, _, err = buffer.Sample()
	if err != nil {
		t.Errorf("sampling at min capacity should succeed, got: %v", err)
	}
}

// TestCacheInvalidConstruction ensures that invalid buffer
// configurations are rejected at construction
func TestCacheInvalidConstruction(t *testing.T) {
	if _, err := New(NewUniformSelector(2, 14), 0, 5, 2, 1); err == nil {
		t.Error("non-positive min capacity should be rejected")
	}
	if _, err := New(NewUniformSelector(2, 14), 1, 0, 2, 1); err == nil {
		t.Error("non-positive max capacity should be rejected")
	}
	if _, err := New(NewUniformSelector(6, 14), 2, 5, 2, 1); err == nil {
		t.Error("batch size exceeding max capacity should be rejected")
	}
	if _, err := New(NewUniformSelector(3, 14), 2, 5, 2, 1); err == nil {
		t.Error("batch size exceeding min capacity should be rejected")
	}
}

// TestCacheInvalidSizes ensures that transitions of the wrong
// dimensions cannot be added
func TestCacheInvalidSizes(t *testing.T) {
	buffer, err := New(NewFifoSelector(1), 1, 4, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := buffer.Add(transitionWithReward(1.0)); err == nil {
		t.Error("adding a transition with the wrong sizes should fail")
	}
}

// TestCacheFifoEviction fills a buffer beyond its maximum capacity and
// ensures that the oldest transitions are evicted first and that the
// capacity never exceeds the maximum
func TestCacheFifoEviction(t *testing.T) {
	const maxCap = 4

	buffer, err := New(NewFifoSelector(1), 1, maxCap, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= maxCap+2; i++ {
		if err := buffer.Add(transitionWithReward(float64(i))); err != nil {
			t.Fatal(err)
		}

		if buffer.Capacity() > buffer.MaxCapacity() {
			t.Fatalf("capacity (%v) exceeded max capacity (%v)",
				buffer.Capacity(), buffer.MaxCapacity())
		}
	}

	if buffer.Capacity() != maxCap {
		t.Errorf("expected full buffer \n\twant: %v \n\thave: %v", maxCap,
			buffer.Capacity())
	}

	// Transitions 1 and 2 were overwritten, so the oldest remaining
	// transition is 3
	_, _, rewards, _, _, _, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if rewards[0] != 3.0 {
		t.Errorf("oldest transition not evicted first \n\twant: %v "+
			"\n\thave: %v", 3.0, rewards[0])
	}
}

// TestUniformSampleDistinct ensures that a sampled batch never
// contains the same buffer slot twice
func TestUniformSampleDistinct(t *testing.T) {
	const batchSize = 5

	buffer, err := New(NewUniformSelector(batchSize, 42), batchSize,
		batchSize, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= batchSize; i++ {
		if err := buffer.Add(transitionWithReward(float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	// With batch size == capacity, sampling without replacement must
	// return every stored transition exactly once
	for trial := 0; trial < 10; trial++ {
		_, _, rewards, _, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatal(err)
		}

		seen := make(map[float64]bool)
		for _, reward := range rewards {
			if seen[reward] {
				t.Fatalf("duplicate transition in sampled batch: %v", rewards)
			}
			seen[reward] = true
		}
		if len(seen) != batchSize {
			t.Fatalf("expected %v distinct transitions, got %v", batchSize,
				len(seen))
		}
	}
}

// TestCacheSampleContents ensures that sampled data matches the data
// that was added to the buffer
func TestCacheSampleContents(t *testing.T) {
	buffer, err := New(NewFifoSelector(2), 2, 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	first := timestep.Transition{
		State:      mat.NewVecDense(2, []float64{0.1, 0.2}),
		Action:     mat.NewVecDense(1, []float64{0.5}),
		Reward:     -1.0,
		Discount:   1.0,
		NextState:  mat.NewVecDense(2, []float64{0.3, 0.4}),
		NextAction: mat.NewVecDense(1, []float64{-0.5}),
	}
	second := timestep.Transition{
		State:      mat.NewVecDense(2, []float64{0.5, 0.6}),
		Action:     mat.NewVecDense(1, []float64{1.0}),
		Reward:     99.0,
		Discount:   0.0,
		NextState:  mat.NewVecDense(2, []float64{0.7, 0.8}),
		NextAction: mat.NewVecDense(1, []float64{0.0}),
	}

	if err := buffer.Add(first); err != nil {
		t.Fatal(err)
	}
	if err := buffer.Add(second); err != nil {
		t.Fatal(err)
	}

	states, actions, rewards, discounts, nextStates, nextActions,
		err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}

	expectedStates := []float64{0.1, 0.2, 0.5, 0.6}
	for i := range expectedStates {
		if states[i] != expectedStates[i] {
			t.Errorf("incorrect state batch \n\twant: %v \n\thave: %v",
				expectedStates, states)
			break
		}
	}

	expectedNextStates := []float64{0.3, 0.4, 0.7, 0.8}
	for i := range expectedNextStates {
		if nextStates[i] != expectedNextStates[i] {
			t.Errorf("incorrect next state batch \n\twant: %v \n\thave: %v",
				expectedNextStates, nextStates)
			break
		}
	}

	if actions[0] != 0.5 || actions[1] != 1.0 {
		t.Errorf("incorrect action batch: %v", actions)
	}
	if nextActions[0] != -0.5 || nextActions[1] != 0.0 {
		t.Errorf("incorrect next action batch: %v", nextActions)
	}
	if rewards[0] != -1.0 || rewards[1] != 99.0 {
		t.Errorf("incorrect reward batch: %v", rewards)
	}
	if discounts[0] != 1.0 || discounts[1] != 0.0 {
		t.Errorf("incorrect discount batch: %v", discounts)
	}
}
