package statesync

import (
	"reflect"
	"testing"
	"time"

	"elevdispatch/types"
)

func TestUpdate(t *testing.T) {
	r := NewRegistry(3)
	now := time.Now()

	initState := CarStatus{Car: 2, Floor: 4, Status: ST_Moving, Target: 1, Seq: 0, LastReport: now}
	endState := CarStatus{Car: 2, Floor: 5, Status: ST_Stopped, Target: types.NoFloor, Seq: 5, LastReport: now}
	staleState := CarStatus{Car: 2, Floor: 0, Status: ST_Idle, Target: types.NoFloor, Seq: 2, LastReport: now} // old seq not applied

	r.Update(initState)
	r.Update(endState)
	if r.Update(staleState) {
		t.Errorf("Stale report was applied")
	}

	got, ok := r.Get(2)
	if !ok || !reflect.DeepEqual(got, endState) {
		t.Errorf("Invalid state after applying updates.\nExpected: %+v\nWas: %+v", endState, got)
	}
}

func TestUpdate_SameSeqIsStale(t *testing.T) {
	r := NewRegistry(1)
	r.Update(CarStatus{Car: 0, Floor: 1, Seq: 3})

	if r.Update(CarStatus{Car: 0, Floor: 2, Seq: 3}) {
		t.Errorf("Report with repeated seq was applied")
	}
	if got, _ := r.Get(0); got.Floor != 1 {
		t.Errorf("Expected floor 1, was %d", got.Floor)
	}
}

func TestDynamicSizingOfUpdate(t *testing.T) {
	// unknown cars grow the table
	r := NewRegistry(0)
	for i := range 250 {
		r.Update(CarStatus{Car: i, Floor: 4, Seq: 1})
	}

	for i, s := range r.Snapshot() {
		if i != s.Car {
			t.Errorf("Invalid state after applying updates: index %d holds car %d", i, s.Car)
		}
	}
}

func TestGet_UnknownCar(t *testing.T) {
	r := NewRegistry(2)
	if _, ok := r.Get(1); ok {
		t.Errorf("Expected car 1 to be unknown")
	}
	if _, ok := r.Get(7); ok {
		t.Errorf("Expected car 7 to be unknown")
	}
}

func TestAliveCarIDs(t *testing.T) {
	r := NewRegistry(3)
	r.Update(CarStatus{Car: 0, Seq: 1, LastReport: time.Now()})
	r.Update(CarStatus{Car: 1, Seq: 1, LastReport: time.Now().Add(-1 * time.Hour)}) // not alive
	r.Update(CarStatus{Car: 2, Seq: 1, LastReport: time.Now()})

	expected := []int{0, 2}
	if got := r.AliveCarIDs(time.Second); !reflect.DeepEqual(got, expected) {
		t.Errorf("Alive cars not as expected.\nExpected: %+v\nWas: %+v", expected, got)
	}
}

func TestSnapshot_IsIndependentCopy(t *testing.T) {
	r := NewRegistry(1)
	r.Update(CarStatus{Car: 0, Floor: 3, Seq: 1})

	snap := r.Snapshot()
	snap[0].Floor = 9

	if got, _ := r.Get(0); got.Floor != 3 {
		t.Errorf("Snapshot mutation leaked into registry: floor %d", got.Floor)
	}
}
