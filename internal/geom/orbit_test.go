package geom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var orbitEpoch = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

func testStateVectors() []StateVector {
	return []StateVector{
		{
			Time:     orbitEpoch,
			Position: r3.Vec{X: 7000e3, Y: 0, Z: 0},
			Velocity: r3.Vec{X: 0, Y: 7500, Z: 0},
		},
		{
			Time:     orbitEpoch.Add(10 * time.Second),
			Position: r3.Vec{X: 7000e3, Y: 75e3, Z: 1e3},
			Velocity: r3.Vec{X: -10, Y: 7500, Z: 100},
		},
	}
}

func TestNewOrbitCalculatorEmpty(t *testing.T) {
	_, err := NewOrbitCalculator(nil)
	require.ErrorIs(t, err, ErrNoSamples)
}

func TestOrbitCalculatorExactSamples(t *testing.T) {
	svs := testStateVectors()
	c, err := NewOrbitCalculator(svs)
	require.NoError(t, err)

	for _, sv := range svs {
		assert.Equal(t, sv.Position, c.Position(sv.Time))
		assert.Equal(t, sv.Velocity, c.Velocity(sv.Time))
	}
}

func TestOrbitCalculatorInterpolation(t *testing.T) {
	c, err := NewOrbitCalculator(testStateVectors())
	require.NoError(t, err)

	mid := orbitEpoch.Add(5 * time.Second)
	pos := c.Position(mid)
	assert.InDelta(t, 7000e3, pos.X, 1e-6)
	assert.InDelta(t, 37.5e3, pos.Y, 1e-6)
	assert.InDelta(t, 500, pos.Z, 1e-6)

	vel := c.Velocity(mid)
	assert.InDelta(t, -5, vel.X, 1e-9)
	assert.InDelta(t, 7500, vel.Y, 1e-9)
	assert.InDelta(t, 50, vel.Z, 1e-9)
}

func TestOrbitCalculatorClamp(t *testing.T) {
	svs := testStateVectors()
	c, err := NewOrbitCalculator(svs)
	require.NoError(t, err)

	before := orbitEpoch.Add(-time.Hour)
	after := orbitEpoch.Add(time.Hour)
	assert.Equal(t, svs[0].Position, c.Position(before))
	assert.Equal(t, svs[1].Position, c.Position(after))
	assert.Equal(t, svs[0].Velocity, c.Velocity(before))
	assert.Equal(t, svs[1].Velocity, c.Velocity(after))
}

func TestOrbitCalculatorSingleVector(t *testing.T) {
	sv := testStateVectors()[0]
	c, err := NewOrbitCalculator([]StateVector{sv})
	require.NoError(t, err)

	for _, q := range []time.Time{orbitEpoch.Add(-time.Hour), orbitEpoch, orbitEpoch.Add(time.Hour)} {
		assert.Equal(t, sv.Position, c.Position(q))
		assert.Equal(t, sv.Velocity, c.Velocity(q))
	}
}

func TestOrbitCalculatorUnsortedInput(t *testing.T) {
	svs := testStateVectors()
	reversed := []StateVector{svs[1], svs[0]}
	c, err := NewOrbitCalculator(reversed)
	require.NoError(t, err)

	assert.Equal(t, svs[0].Position, c.Position(svs[0].Time))
	assert.Equal(t, svs[1].Position, c.Position(svs[1].Time))
}

func TestOrbitCalculatorDeterministic(t *testing.T) {
	// Rebuilding from identical inputs must reproduce identical values.
	mid := orbitEpoch.Add(3141 * time.Millisecond)

	c1, err := NewOrbitCalculator(testStateVectors())
	require.NoError(t, err)
	c2, err := NewOrbitCalculator(testStateVectors())
	require.NoError(t, err)

	assert.Equal(t, c1.Position(mid), c2.Position(mid))
	assert.Equal(t, c1.Velocity(mid), c2.Velocity(mid))
}

func TestPlatformSpeedFromVelocity(t *testing.T) {
	c, err := NewOrbitCalculator(testStateVectors())
	require.NoError(t, err)

	speed := r3.Norm(c.Velocity(orbitEpoch))
	assert.InDelta(t, 7500, speed, 1e-9)
}
