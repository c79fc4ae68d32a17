package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// GIVEN two PartitionedRNGs built from the same key
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	// WHEN drawing from the same device subsystem
	// THEN both sequences are identical
	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemDevice(0)).Float64()
		v2 := rng2.ForSubsystem(SubsystemDevice(0)).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// Drawing from device 0 must not shift device 1's stream.
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemDevice(0)).Float64()
	}
	aFirst := rngA.ForSubsystem(SubsystemDevice(1)).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	want := fresh.ForSubsystem(SubsystemDevice(1)).Float64()

	if aFirst != want {
		t.Errorf("device_1 first value = %v, want %v (isolation broken)", aFirst, want)
	}
}

func TestPartitionedRNG_TopologyUsesMasterSeed(t *testing.T) {
	seed := int64(42)
	rng := NewPartitionedRNG(NewSimulationKey(seed))
	topology := rng.ForSubsystem(SubsystemTopology)
	direct := rand.New(rand.NewSource(seed))

	for i := 0; i < 10; i++ {
		assert.Equal(t, direct.Float64(), topology.Float64(), "value %d", i)
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	assert.Same(t, rng.ForSubsystem(SubsystemNetwork), rng.ForSubsystem(SubsystemNetwork))
}

func TestPartitionedRNG_Key(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(12345))
	assert.Equal(t, SimulationKey(12345), rng.Key())
}

func TestPartitionedRNG_ExtremeSeeds(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := NewPartitionedRNG(NewSimulationKey(tt.seed))
			val := rng.ForSubsystem(SubsystemNetwork).Float64()
			assert.GreaterOrEqual(t, val, 0.0)
			assert.Less(t, val, 1.0)
		})
	}
}

func TestFnv1a64_NoCollisionsAcrossSubsystems(t *testing.T) {
	names := []string{
		SubsystemTopology,
		SubsystemNetwork,
		SubsystemPacketIDs,
		SubsystemDevice(0),
		SubsystemDevice(1),
		SubsystemDevice(100),
		"",
	}
	hashes := make(map[int64]string)
	for _, name := range names {
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}

func TestSubsystemDevice(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "device_0"},
		{7, "device_7"},
		{100, "device_100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubsystemDevice(tt.id))
	}
}

func TestUniform_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := Uniform(rng, 30, 40)
		if v < 30 || v > 40 {
			t.Fatalf("Uniform(30, 40) = %v, out of range", v)
		}
	}
}

func TestUniform_DegenerateRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, 1.0, Uniform(rng, 1.0, 1.0))
}

func BenchmarkPartitionedRNG_ForSubsystem_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForSubsystem(SubsystemNetwork)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForSubsystem(SubsystemNetwork)
	}
}
