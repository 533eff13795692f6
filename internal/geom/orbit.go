package geom

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// StateVector is one orbit state sample: platform position (m) and
// velocity (m/s) in an earth-centred frame at a given instant.
type StateVector struct {
	Time     time.Time
	Position r3.Vec
	Velocity r3.Vec
}

// OrbitCalculator interpolates platform position and velocity between
// orbit state vectors. Six per-axis series are built eagerly at
// construction; repeated queries are side-effect-free.
type OrbitCalculator struct {
	vectors  []StateVector
	position [3]*Series
	velocity [3]*Series
}

// NewOrbitCalculator sorts the state vectors by time and builds the
// per-axis interpolators. At least one state vector is required.
func NewOrbitCalculator(vectors []StateVector) (*OrbitCalculator, error) {
	if len(vectors) == 0 {
		return nil, ErrNoSamples
	}

	sorted := make([]StateVector, len(vectors))
	copy(sorted, vectors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	times := make([]float64, len(sorted))
	for i, sv := range sorted {
		times[i] = SecondsSinceEpoch(sv.Time)
	}

	c := &OrbitCalculator{vectors: sorted}
	for axis := 0; axis < 3; axis++ {
		pos := make([]float64, len(sorted))
		vel := make([]float64, len(sorted))
		for i, sv := range sorted {
			pos[i] = component(sv.Position, axis)
			vel[i] = component(sv.Velocity, axis)
		}
		var err error
		if c.position[axis], err = NewSeries(times, pos); err != nil {
			return nil, err
		}
		if c.velocity[axis], err = NewSeries(times, vel); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Position returns the interpolated platform position at t, in metres.
func (c *OrbitCalculator) Position(t time.Time) r3.Vec {
	return c.eval(c.position, t)
}

// Velocity returns the interpolated platform velocity at t, in m/s.
func (c *OrbitCalculator) Velocity(t time.Time) r3.Vec {
	return c.eval(c.velocity, t)
}

// StateVectors returns the time-sorted samples the calculator was built
// from.
func (c *OrbitCalculator) StateVectors() []StateVector { return c.vectors }

func (c *OrbitCalculator) eval(axes [3]*Series, t time.Time) r3.Vec {
	ts := SecondsSinceEpoch(t)
	return r3.Vec{
		X: axes[0].At(ts),
		Y: axes[1].At(ts),
		Z: axes[2].At(ts),
	}
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
