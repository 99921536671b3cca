package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/student"
)

// Gate decides whether a check-in is admitted. It keeps no state and writes nothing,
// so one Gate may serve any number of concurrent evaluations.
type Gate struct {
	students IdentityLookup
	config   ConfigStore
	calc     geo.DistanceCalculator
}

func NewGate(students IdentityLookup, config ConfigStore, calc geo.DistanceCalculator) *Gate {
	if calc == nil {
		calc = geo.Haversine{}
	}
	return &Gate{students: students, config: config, calc: calc}
}

// Evaluate runs the checks in order, stopping at the first that fails:
// identity, window, zone, location, then distance against the zone radius.
// Expected rejections are outcomes; an error means a collaborator failed.
func (g *Gate) Evaluate(ctx context.Context, prn string, loc geo.Point) (Evaluation, error) {
	std, err := g.students.LookupStudent(ctx, prn)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Evaluation{Outcome: OutcomeIdentityUnknown}, nil
		}
		return Evaluation{}, errors.Wrap(err, "looking up student")
	}

	open, err := g.config.GetWindow(ctx)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "getting attendance window")
	}
	if !open {
		return Evaluation{Outcome: OutcomeWindowClosed, Student: &std}, nil
	}

	zone, err := g.config.GetZone(ctx)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "getting allowed zone")
	}
	if !zone.IsConfigured() {
		return Evaluation{Outcome: OutcomeZoneNotConfigured, Student: &std}, nil
	}

	if !loc.IsValid() {
		return Evaluation{Outcome: OutcomeInvalidLocation, Student: &std}, nil
	}

	d := g.calc.Distance(loc, zone.Center)
	ev := Evaluation{
		Outcome:        OutcomeOutsideRadius,
		DistanceMeters: &d,
		Student:        &std,
	}
	if zone.Admits(d) {
		ev.Outcome = OutcomeAdmitted
		ev.Admitted = true
	}
	return ev, nil
}
