package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"elevdispatch/config"
	"elevdispatch/types"

	"github.com/golang/glog"
)

// Passenger travels from Origin to Dest. Tick fields record when it
// appeared, boarded and left.
type Passenger struct {
	ID        int
	Origin    int
	Dest      int
	Car       int
	Spawned   int
	PickedUp  int
	Delivered int
}

// Publisher receives the events produced by each simulation tick.
type Publisher interface {
	Publish(ctx context.Context, batch types.EventBatch) error
}

// Report summarizes a simulation run.
type Report struct {
	Ticks        int
	Spawned      int
	Delivered    int
	Waiting      int
	Riding       int
	AvgWaitTicks float64
	AvgRideTicks float64
	MaxWaitTicks int
}

func (r Report) String() string {
	return fmt.Sprintf("%d ticks, %d/%d delivered (%d waiting, %d riding), avg wait %.1f ticks, max wait %d ticks, avg ride %.1f ticks",
		r.Ticks, r.Delivered, r.Spawned, r.Waiting, r.Riding, r.AvgWaitTicks, r.MaxWaitTicks, r.AvgRideTicks)
}

// Building simulates the cars and floors around a dispatcher. Everything
// except the cars' command queues is owned by the goroutine calling Step.
type Building struct {
	cfg       config.Config
	rng       *rand.Rand
	cars      []*Car
	waiting   [][]*Passenger
	tick      int
	spawned   int
	delivered []*Passenger
}

// NewBuilding places every car idle at floor 0.
func NewBuilding(cfg config.Config) *Building {
	b := &Building{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		cars:    make([]*Car, cfg.Cars),
		waiting: make([][]*Passenger, cfg.Floors),
	}
	for id := range cfg.Cars {
		b.cars[id] = newCar(id, 0)
	}
	return b
}

// Cars returns the cars as dispatch targets, indexed by id.
func (b *Building) Cars() []types.Car {
	cars := make([]types.Car, len(b.cars))
	for i, c := range b.cars {
		cars[i] = c
	}
	return cars
}

func (b *Building) Car(id int) *Car {
	return b.cars[id]
}

func (b *Building) Tick() int {
	return b.tick
}

// AddPassenger places a passenger at `origin` and returns the hall call it
// makes. No call is made when a car already has its door open there.
func (b *Building) AddPassenger(origin, dest int) types.EventBatch {
	var out types.EventBatch
	b.addPassenger(origin, dest, &out)
	return out
}

func (b *Building) addPassenger(origin, dest int, out *types.EventBatch) {
	if origin < 0 || origin >= b.cfg.Floors || dest < 0 || dest >= b.cfg.Floors || origin == dest {
		panic(fmt.Sprintf("sim: invalid passenger trip %d -> %d", origin, dest))
	}

	p := &Passenger{ID: b.spawned, Origin: origin, Dest: dest, Car: -1, Spawned: b.tick}
	b.spawned++
	b.waiting[origin] = append(b.waiting[origin], p)
	glog.V(1).Infof("passenger %d waiting at floor %d, going to %d", p.ID, origin, dest)

	if b.doorOpenAt(origin) {
		return
	}
	out.FloorCalls = append(out.FloorCalls, types.FloorCall{
		Floor:     origin,
		Direction: types.DirectionTo(origin, dest),
	})
}

func (b *Building) doorOpenAt(floor int) bool {
	for _, c := range b.cars {
		c.mtx.Lock()
		open := c.state == ST_DoorOpen && c.floor == floor
		c.mtx.Unlock()
		if open {
			return true
		}
	}
	return false
}

func (b *Building) takeWaiting(floor int) []*Passenger {
	boarding := b.waiting[floor]
	b.waiting[floor] = nil
	return boarding
}

func (b *Building) deliver(p *Passenger) {
	b.delivered = append(b.delivered, p)
	glog.V(1).Infof("passenger %d delivered to floor %d by car %d", p.ID, p.Dest, p.Car)
}

// Step advances the simulation by one tick and returns the events it produced.
func (b *Building) Step() types.EventBatch {
	b.tick++
	var out types.EventBatch

	if b.cfg.SpawnEvery > 0 && b.tick%b.cfg.SpawnEvery == 0 && b.spawned < b.cfg.Passengers {
		origin := b.rng.Intn(b.cfg.Floors)
		dest := b.rng.Intn(b.cfg.Floors - 1)
		if dest >= origin {
			dest++
		}
		b.addPassenger(origin, dest, &out)
	}

	for _, c := range b.cars {
		c.mtx.Lock()
		c.step(b, &out)
		c.mtx.Unlock()
	}

	return out
}

// Finished reports whether every passenger has been delivered or the tick
// limit is reached.
func (b *Building) Finished() bool {
	if b.tick >= b.cfg.MaxTicks {
		return true
	}
	return b.spawned >= b.cfg.Passengers && len(b.delivered) == b.spawned
}

// Run steps the simulation once per configured tick and publishes the
// events of each step until Finished or ctx is done.
func (b *Building) Run(ctx context.Context, pub Publisher) (Report, error) {
	glog.Infof("simulation %s: %d cars, %d floors, %d passengers", b.cfg.RunID, b.cfg.Cars, b.cfg.Floors, b.cfg.Passengers)

	ticker := time.NewTicker(b.cfg.Tick)
	defer ticker.Stop()

	for !b.Finished() {
		select {
		case <-ctx.Done():
			return b.Report(), ctx.Err()
		case <-ticker.C:
		}

		batch := b.Step()
		if batch.Empty() {
			continue
		}
		if err := pub.Publish(ctx, batch); err != nil {
			return b.Report(), fmt.Errorf("publishing tick %d: %w", b.tick, err)
		}
	}

	if b.tick >= b.cfg.MaxTicks && len(b.delivered) < b.spawned {
		glog.Warningf("simulation %s: tick limit %d reached with %d passengers undelivered", b.cfg.RunID, b.cfg.MaxTicks, b.spawned-len(b.delivered))
	}
	return b.Report(), nil
}

func (b *Building) Report() Report {
	r := Report{
		Ticks:     b.tick,
		Spawned:   b.spawned,
		Delivered: len(b.delivered),
	}
	for _, floor := range b.waiting {
		r.Waiting += len(floor)
	}
	for _, c := range b.cars {
		r.Riding += c.Riders()
	}

	if len(b.delivered) == 0 {
		return r
	}
	var wait, ride int
	for _, p := range b.delivered {
		w := p.PickedUp - p.Spawned
		wait += w
		ride += p.Delivered - p.PickedUp
		if w > r.MaxWaitTicks {
			r.MaxWaitTicks = w
		}
	}
	r.AvgWaitTicks = float64(wait) / float64(len(b.delivered))
	r.AvgRideTicks = float64(ride) / float64(len(b.delivered))
	return r
}
