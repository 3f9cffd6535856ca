package service

import "fixitnow-backend/app/model"

// transitions lists the statuses reachable from each status, besides itself.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:    {model.StatusAssigned, model.StatusInProgress, model.StatusResolved, model.StatusClosed},
	model.StatusAssigned:   {model.StatusPending, model.StatusInProgress, model.StatusResolved, model.StatusClosed},
	model.StatusInProgress: {model.StatusAssigned, model.StatusResolved, model.StatusClosed},
	model.StatusResolved:   {model.StatusInProgress, model.StatusClosed},
	model.StatusClosed:     {},
}

// Lifecycle decides which status changes are permitted. With Strict off
// every change is allowed.
type Lifecycle struct {
	Strict bool
}

// CanTransition reports whether a complaint may move from one status to
// another. Staying on the same status is always allowed.
func (l Lifecycle) CanTransition(from, to model.Status) bool {
	if !l.Strict || from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesOf lists every status from which to can be reached; nil when
// not strict. It feeds the storage-level guard on updates.
func (l Lifecycle) SourcesOf(to model.Status) []model.Status {
	if !l.Strict {
		return nil
	}
	var out []model.Status
	for _, from := range model.AllStatuses() {
		if l.CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// AssignableFrom lists the statuses a complaint may be assigned from.
func (l Lifecycle) AssignableFrom() []model.Status {
	if !l.Strict {
		return nil
	}
	return []model.Status{model.StatusPending, model.StatusAssigned, model.StatusInProgress}
}

// ResolvableFrom lists the statuses the resolve operation accepts.
func (l Lifecycle) ResolvableFrom() []model.Status {
	if !l.Strict {
		return nil
	}
	return []model.Status{model.StatusPending, model.StatusAssigned, model.StatusInProgress, model.StatusResolved}
}

func contains(list []model.Status, s model.Status) bool {
	if list == nil {
		return true
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
