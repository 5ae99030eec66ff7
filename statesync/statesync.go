package statesync

import (
	"fmt"
	"sync"
	"time"

	"elevdispatch/types"

	"github.com/golang/glog"
)

type Status int

const (
	ST_Unknown Status = iota
	ST_Idle
	ST_Moving
	ST_Stopped
)

func (s Status) String() string {
	switch s {
	case ST_Idle:
		return "idle"
	case ST_Moving:
		return "moving"
	case ST_Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CarStatus is the last known state of one car.
type CarStatus struct {
	Car        int
	Floor      int
	Status     Status
	Target     int
	Seq        uint32
	LastReport time.Time
}

func (s CarStatus) String() string {
	if s.Target == types.NoFloor {
		return fmt.Sprintf("car %d: %s at floor %d", s.Car, s.Status, s.Floor)
	}
	return fmt.Sprintf("car %d: %s at floor %d, target %d", s.Car, s.Status, s.Floor, s.Target)
}

// Registry stores car states by car id (index in the slice).
type Registry struct {
	mtx    sync.RWMutex
	states []*CarStatus
}

func NewRegistry(numCars int) *Registry {
	return &Registry{states: make([]*CarStatus, numCars)}
}

// Update stores `s` unless a report with the same or a newer sequence number
// is already stored. Returns whether the report was applied.
func (r *Registry) Update(s CarStatus) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if s.Car < 0 {
		panic(fmt.Sprintf("statesync: negative car id %d", s.Car))
	}
	if s.Car >= len(r.states) {
		r.states = append(r.states, make([]*CarStatus, s.Car+1-len(r.states))...)
	}

	old := r.states[s.Car]
	if old != nil && old.Seq >= s.Seq {
		glog.Warningf("statesync: dropping stale report for car %d (seq %d, have %d)", s.Car, s.Seq, old.Seq)
		return false
	}
	if s.LastReport.IsZero() {
		s.LastReport = time.Now()
	}
	r.states[s.Car] = &s
	return true
}

// Get returns the stored state of car `car`, or false if it never reported.
func (r *Registry) Get(car int) (CarStatus, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if car < 0 || car >= len(r.states) || r.states[car] == nil {
		return CarStatus{}, false
	}
	return *r.states[car], true
}

// AliveCarIDs returns the ids of all cars that reported within `timeout`.
func (r *Registry) AliveCarIDs(timeout time.Duration) []int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	alive := make([]int, 0, len(r.states))
	for id, s := range r.states {
		if s != nil && time.Since(s.LastReport) <= timeout {
			alive = append(alive, id)
		}
	}
	return alive
}

// Snapshot returns a copy of every reported state in car id order.
// Cars that never reported are left out.
func (r *Registry) Snapshot() []CarStatus {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	reported := make([]CarStatus, 0, len(r.states))
	for _, s := range r.states {
		if s != nil {
			reported = append(reported, *s)
		}
	}
	return reported
}
