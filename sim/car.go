package sim

import (
	"fmt"
	"sync"

	"elevdispatch/types"

	"github.com/golang/glog"
)

type stateFSM int

const (
	ST_Idle     stateFSM = 0
	ST_Moving   stateFSM = 1
	ST_DoorOpen stateFSM = 2
)

func (s stateFSM) String() string {
	switch s {
	case ST_Idle:
		return "idle"
	case ST_Moving:
		return "moving"
	case ST_DoorOpen:
		return "door open"
	default:
		return "undefined"
	}
}

// Car is a simulated elevator car. Commands are queued and served in order;
// the car passes intermediate floors without stopping.
type Car struct {
	id int

	mtx          sync.Mutex
	state        stateFSM
	floor        int
	direction    types.Direction
	destinations []int
	travelTicks  int
	doorTicks    int
	idleTicks    int
	riders       []*Passenger
	stops        int
}

func newCar(id, floor int) *Car {
	return &Car{
		id:        id,
		state:     ST_Idle,
		floor:     floor,
		direction: types.DirNone,
	}
}

func (c *Car) ID() int {
	return c.id
}

// GoToFloor queues `floor` as the car's next destination.
func (c *Car) GoToFloor(floor int) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.destinations = append(c.destinations, floor)
	glog.V(2).Infof("car %d: queued floor %d, destinations %v", c.id, floor, c.destinations)
}

func (c *Car) Floor() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.floor
}

func (c *Car) State() stateFSM {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

func (c *Car) Riders() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.riders)
}

func (c *Car) String() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return fmt.Sprintf("car %d: %s at floor %d, %d riders, %d stops", c.id, c.state, c.floor, len(c.riders), c.stops)
}

// step advances the car by one tick. The caller must hold c.mtx.
func (c *Car) step(b *Building, out *types.EventBatch) {
	switch c.state {
	case ST_Idle:
		if len(c.destinations) == 0 {
			c.idleTicks++
			if c.idleTicks >= b.cfg.IdleTicks {
				c.idleTicks = 0
				out.Idles = append(out.Idles, types.CarIdle{Car: c.id})
			}
			return
		}
		c.departOrArrive(b, out)

	case ST_Moving:
		c.travelTicks++
		if c.travelTicks < b.cfg.TicksPerFloor {
			return
		}
		c.travelTicks = 0
		c.floor += int(c.direction)
		glog.V(2).Infof("car %d: passing floor %d", c.id, c.floor)

		if c.floor == c.destinations[0] {
			c.destinations = c.destinations[1:]
			c.arrive(b, out)
		}

	case ST_DoorOpen:
		// door is open, so anyone waiting here walks in
		c.board(b, out)

		c.doorTicks--
		if c.doorTicks > 0 {
			return
		}
		if len(c.destinations) == 0 {
			c.state = ST_Idle
			c.direction = types.DirNone
			c.idleTicks = 0
			out.Idles = append(out.Idles, types.CarIdle{Car: c.id})
			return
		}
		c.departOrArrive(b, out)
	}
}

func (c *Car) departOrArrive(b *Building, out *types.EventBatch) {
	target := c.destinations[0]
	if target == c.floor {
		c.destinations = c.destinations[1:]
		c.arrive(b, out)
		return
	}

	c.state = ST_Moving
	c.direction = types.DirectionTo(c.floor, target)
	c.travelTicks = 0
	glog.V(1).Infof("car %d: leaving floor %d towards %d", c.id, c.floor, target)
}

func (c *Car) arrive(b *Building, out *types.EventBatch) {
	c.state = ST_DoorOpen
	c.direction = types.DirNone
	c.doorTicks = b.cfg.DoorTicks
	c.stops++

	remaining := c.riders[:0]
	for _, p := range c.riders {
		if p.Dest == c.floor {
			p.Delivered = b.tick
			b.deliver(p)
		} else {
			remaining = append(remaining, p)
		}
	}
	c.riders = remaining

	c.board(b, out)
	out.Stops = append(out.Stops, types.CarStopped{Car: c.id, Floor: c.floor})
}

func (c *Car) board(b *Building, out *types.EventBatch) {
	for _, p := range b.takeWaiting(c.floor) {
		p.PickedUp = b.tick
		p.Car = c.id
		c.riders = append(c.riders, p)
		out.CarCalls = append(out.CarCalls, types.CarCall{Car: c.id, Floor: p.Dest})
		glog.V(1).Infof("passenger %d boarded car %d at floor %d, going to %d", p.ID, c.id, c.floor, p.Dest)
	}
}
