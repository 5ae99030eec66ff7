package controller

import (
	"context"
	"fmt"

	asg "elevdispatch/assigner"
	sts "elevdispatch/statesync"
	"elevdispatch/types"

	"github.com/golang/glog"
)

// Stats counts handled events and issued commands.
type Stats struct {
	FloorCalls int
	CarCalls   int
	Stops      int
	Idles      int
	Commands   int
}

// Controller feeds car and floor events into a Dispatcher and forwards the
// resulting commands to the cars. All handlers run on the caller's goroutine.
type Controller struct {
	dispatcher *asg.Dispatcher
	cars       []types.Car
	registry   *sts.Registry
	inbox      Inbox
	seq        []uint32
	stats      Stats
}

func New(dispatcher *asg.Dispatcher, cars []types.Car, registry *sts.Registry, inbox Inbox) *Controller {
	if len(cars) != dispatcher.NumCars() {
		panic(fmt.Sprintf("controller: %d cars wired to a dispatcher for %d", len(cars), dispatcher.NumCars()))
	}
	for i, car := range cars {
		if car.ID() != i {
			panic(fmt.Sprintf("controller: car at index %d reports id %d", i, car.ID()))
		}
	}

	return &Controller{
		dispatcher: dispatcher,
		cars:       cars,
		registry:   registry,
		inbox:      inbox,
		seq:        make([]uint32, len(cars)),
	}
}

// Run is the main event loop. It returns the collected stats once ctx is done.
func (c *Controller) Run(ctx context.Context) Stats {
	glog.Infof("control loop started with %d cars", len(c.cars))

	for {
		select {
		case <-ctx.Done():
			glog.Infof("control loop stopped: %+v", c.stats)
			return c.stats

		case call := <-c.inbox.FloorCalls:
			c.handleFloorCall(call)

		case call := <-c.inbox.CarCalls:
			c.handleCarCall(call)

		case stop := <-c.inbox.Stops:
			c.handleStopped(stop)

		case idle := <-c.inbox.Idles:
			c.handleIdle(idle)
		}
	}
}

// Publish handles a whole batch synchronously, without the event loop.
func (c *Controller) Publish(ctx context.Context, batch types.EventBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, call := range batch.FloorCalls {
		c.handleFloorCall(call)
	}
	for _, call := range batch.CarCalls {
		c.handleCarCall(call)
	}
	for _, stop := range batch.Stops {
		c.handleStopped(stop)
	}
	for _, idle := range batch.Idles {
		c.handleIdle(idle)
	}
	return nil
}

// Stats must not be called while Run is active.
func (c *Controller) Stats() Stats {
	return c.stats
}

func (c *Controller) handleFloorCall(call types.FloorCall) {
	glog.V(1).Infof("floor call %+v", call)
	c.stats.FloorCalls++
	c.dispatcher.RequestPickup(call.Floor)
}

func (c *Controller) handleCarCall(call types.CarCall) {
	glog.V(1).Infof("car call %+v", call)
	c.stats.CarCalls++
	c.dispatcher.RequestDropoff(call.Car, call.Floor)
}

func (c *Controller) handleStopped(stop types.CarStopped) {
	glog.V(1).Infof("car %d stopped at floor %d", stop.Car, stop.Floor)
	c.stats.Stops++

	car := c.car(stop.Car)
	target := c.dispatcher.HandleStopped(car, stop.Floor)
	c.report(stop.Car, stop.Floor, target, sts.ST_Stopped)
}

func (c *Controller) handleIdle(idle types.CarIdle) {
	glog.V(2).Infof("car %d idle", idle.Car)
	c.stats.Idles++

	car := c.car(idle.Car)
	target := c.dispatcher.HandleIdle(car)

	floor := types.NoFloor
	if s, ok := c.registry.Get(idle.Car); ok {
		floor = s.Floor
	}
	c.report(idle.Car, floor, target, sts.ST_Idle)
}

func (c *Controller) car(id int) types.Car {
	if id < 0 || id >= len(c.cars) {
		panic(fmt.Sprintf("controller: event for unknown car %d", id))
	}
	return c.cars[id]
}

// report records the outcome of a dispatch decision in the registry.
// `status` is used when the car was not commanded anywhere.
func (c *Controller) report(car, floor, target int, status sts.Status) {
	if target != types.NoFloor {
		c.stats.Commands++
		status = sts.ST_Moving
		glog.Infof("car %d: dispatched from floor %d to floor %d", car, floor, target)
	}

	c.seq[car]++
	c.registry.Update(sts.CarStatus{
		Car:    car,
		Floor:  floor,
		Status: status,
		Target: target,
		Seq:    c.seq[car],
	})
}
