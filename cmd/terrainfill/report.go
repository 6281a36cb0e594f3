package main

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/events"
)

// changeReport tallies what committed operations did to the edited layer
type changeReport struct {
	operations int
	cells      core.CoordinateSet
	// automap events only carry a count
	automapCells int
	unresolved   int
}

func newChangeReport(bus *events.EventBus) (*changeReport, error) {
	r := &changeReport{cells: core.CoordinateSet{}}
	err := bus.SubscribeFunc(r.record,
		events.TypePaintApplied,
		events.TypeAutotilePainted,
		events.TypeAutomapCompleted,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *changeReport) record(e events.Event) {
	switch ev := e.(type) {
	case *events.PaintAppliedEvent:
		r.operations++
		r.unresolved += ev.Unresolved
		r.add(ev.Changed)
	case *events.AutotilePaintedEvent:
		r.operations++
		r.add(ev.Changed)
	case *events.AutomapCompletedEvent:
		r.operations++
		r.automapCells += ev.Changed
	}
}

func (r *changeReport) add(cs []core.Coordinate) {
	for _, c := range cs {
		r.cells.Add(c)
	}
}

// changed is the number of cells written, automap cells counted per run
func (r *changeReport) changed() int {
	return len(r.cells) + r.automapCells
}
