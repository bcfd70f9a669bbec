package swerve

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/SCool62/Crescendo/spatialmath"
)

// Kinematics maps per-module wheel motion to chassis motion for a swerve
// drivetrain with fixed module placements. The frame convention is x forward,
// y left, counterclockwise positive.
type Kinematics struct {
	translations []r2.Point
	inverse      *mat.Dense // stacked 2n x 3 inverse kinematics matrix
}

// NewKinematics builds the kinematic transform for modules at the given
// positions relative to the robot center, in meters.
func NewKinematics(translations []r2.Point) (*Kinematics, error) {
	if len(translations) < 2 {
		return nil, errors.Errorf("need at least 2 module translations, got %d", len(translations))
	}
	inverse := mat.NewDense(2*len(translations), 3, nil)
	for i, tr := range translations {
		// Module velocity = chassis velocity + omega x r.
		inverse.SetRow(2*i, []float64{1, 0, -tr.Y})
		inverse.SetRow(2*i+1, []float64{0, 1, tr.X})
	}
	k := &Kinematics{
		translations: append([]r2.Point{}, translations...),
		inverse:      inverse,
	}
	return k, nil
}

// RectangularModuleTranslations returns the standard FL, FR, BL, BR module
// placements for a drivebase with the given track widths in meters.
func RectangularModuleTranslations(trackWidthX, trackWidthY float64) []r2.Point {
	return []r2.Point{
		{X: trackWidthX / 2, Y: trackWidthY / 2},
		{X: trackWidthX / 2, Y: -trackWidthY / 2},
		{X: -trackWidthX / 2, Y: trackWidthY / 2},
		{X: -trackWidthX / 2, Y: -trackWidthY / 2},
	}
}

// NumModules returns how many modules the transform was built for.
func (k *Kinematics) NumModules() int {
	return len(k.translations)
}

// ToTwist computes the robot-frame incremental motion that best explains the
// given module deltas, as the least-squares solution of the inverse
// kinematics system. One delta per module, in construction order.
func (k *Kinematics) ToTwist(deltas []ModuleDelta) (spatialmath.Twist, error) {
	if len(deltas) != len(k.translations) {
		return spatialmath.Twist{}, errors.Errorf(
			"expected %d module deltas, got %d", len(k.translations), len(deltas))
	}
	b := mat.NewVecDense(2*len(deltas), nil)
	for i, d := range deltas {
		b.SetVec(2*i, d.DistanceMeters*math.Cos(d.AngleRads))
		b.SetVec(2*i+1, d.DistanceMeters*math.Sin(d.AngleRads))
	}
	var x mat.VecDense
	if err := x.SolveVec(k.inverse, b); err != nil {
		return spatialmath.Twist{}, errors.Wrap(err, "kinematics solve failed")
	}
	return spatialmath.Twist{
		Dx:     x.AtVec(0),
		Dy:     x.AtVec(1),
		Dtheta: x.AtVec(2),
	}, nil
}
