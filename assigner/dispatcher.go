package assigner

import (
	"fmt"

	"elevdispatch/types"

	"github.com/golang/glog"
	"github.com/tiendc/go-deepcopy"
)

// Dispatcher decides which floor a car should visit next. It holds the
// shared pickup queue and one dropoff queue per car.
//
// A Dispatcher is not safe for concurrent use. It is owned by a single
// event loop (see package controller) which handles one event at a time.
type Dispatcher struct {
	numCars       int
	numFloors     int
	pickupQueue   []int
	dropoffQueues map[int][]int
}

// Snapshot is a copy of the dispatcher queues.
type Snapshot struct {
	Pickups  []int
	Dropoffs map[int][]int
}

func NewDispatcher(numCars, numFloors int) *Dispatcher {
	if numCars < 1 {
		panic(fmt.Sprintf("assigner: need at least one car, got %d", numCars))
	}
	if numFloors < 1 {
		panic(fmt.Sprintf("assigner: need at least one floor, got %d", numFloors))
	}

	d := &Dispatcher{
		numCars:       numCars,
		numFloors:     numFloors,
		pickupQueue:   make([]int, 0, numFloors),
		dropoffQueues: make(map[int][]int, numCars),
	}
	for car := range numCars {
		d.dropoffQueues[car] = make([]int, 0, numFloors)
	}
	return d
}

// RequestPickup registers a hall call. Duplicates accumulate and are
// collapsed when the floor is claimed or visited.
func (d *Dispatcher) RequestPickup(floor int) {
	d.checkFloor("RequestPickup", floor)
	d.pickupQueue = append(d.pickupQueue, floor)
	glog.V(2).Infof("pickup requested at floor %d, queue %v", floor, d.pickupQueue)
}

// RequestDropoff registers a destination pressed inside car `car`.
func (d *Dispatcher) RequestDropoff(car, floor int) {
	d.checkCar("RequestDropoff", car)
	d.checkFloor("RequestDropoff", floor)
	d.dropoffQueues[car] = append(d.dropoffQueues[car], floor)
	glog.V(2).Infof("car %d: dropoff requested at floor %d, queue %v", car, floor, d.dropoffQueues[car])
}

// ClaimNextPickup removes the oldest pickup together with every other
// pending pickup at the same floor. Returns types.NoFloor if there is none.
func (d *Dispatcher) ClaimNextPickup() int {
	if len(d.pickupQueue) == 0 {
		return types.NoFloor
	}

	floor := d.pickupQueue[0]
	d.pickupQueue = removeFloor(d.pickupQueue[1:], floor)
	return floor
}

// NextDropoff pops the oldest destination of car `car`. Duplicates are not
// collapsed. Returns types.NoFloor if the queue is empty.
func (d *Dispatcher) NextDropoff(car int) int {
	d.checkCar("NextDropoff", car)

	queue := d.dropoffQueues[car]
	if len(queue) == 0 {
		return types.NoFloor
	}

	floor := queue[0]
	d.dropoffQueues[car] = queue[1:]
	return floor
}

// OnArrival fulfills every pickup at `floor` and every dropoff of car `car`
// at `floor`. Other cars' dropoffs are left untouched.
func (d *Dispatcher) OnArrival(car, floor int) {
	d.checkCar("OnArrival", car)
	d.checkFloor("OnArrival", floor)

	d.pickupQueue = removeFloor(d.pickupQueue, floor)
	d.dropoffQueues[car] = removeFloor(d.dropoffQueues[car], floor)
}

// Dispatch picks the next floor for `car` and commands it there. A pending
// dropoff always wins over a pickup. Returns the commanded floor, or
// types.NoFloor if the car was left idle.
func (d *Dispatcher) Dispatch(car types.Car) int {
	id := car.ID()
	d.checkCar("Dispatch", id)

	floor := d.NextDropoff(id)
	if floor == types.NoFloor {
		floor = d.ClaimNextPickup()
	}
	if floor == types.NoFloor {
		glog.V(1).Infof("car %d: nothing to do", id)
		return types.NoFloor
	}

	glog.V(1).Infof("car %d: go to floor %d", id, floor)
	car.GoToFloor(floor)
	return floor
}

// HandleStopped runs arrival fulfillment and then a dispatch decision.
func (d *Dispatcher) HandleStopped(car types.Car, floor int) int {
	d.OnArrival(car.ID(), floor)
	return d.Dispatch(car)
}

// HandleIdle runs a dispatch decision without fulfillment.
func (d *Dispatcher) HandleIdle(car types.Car) int {
	return d.Dispatch(car)
}

func (d *Dispatcher) PendingPickups() int {
	return len(d.pickupQueue)
}

func (d *Dispatcher) PendingDropoffs(car int) int {
	d.checkCar("PendingDropoffs", car)
	return len(d.dropoffQueues[car])
}

func (d *Dispatcher) NumCars() int {
	return d.numCars
}

// Snapshot returns a deep copy of both queues.
func (d *Dispatcher) Snapshot() Snapshot {
	var snap Snapshot
	err := deepcopy.Copy(&snap, Snapshot{Pickups: d.pickupQueue, Dropoffs: d.dropoffQueues})
	if err != nil {
		panic("Failed to deepcopy dispatcher queues")
	}
	return snap
}

func (d *Dispatcher) checkCar(op string, car int) {
	if car < 0 || car >= d.numCars {
		panic(fmt.Sprintf("assigner: %s: car %d out of range [0, %d)", op, car, d.numCars))
	}
}

func (d *Dispatcher) checkFloor(op string, floor int) {
	if floor < 0 || floor >= d.numFloors {
		panic(fmt.Sprintf("assigner: %s: floor %d out of range [0, %d)", op, floor, d.numFloors))
	}
}

// removeFloor filters `floor` out of `queue` in place.
func removeFloor(queue []int, floor int) []int {
	kept := queue[:0]
	for _, f := range queue {
		if f != floor {
			kept = append(kept, f)
		}
	}
	return kept
}
