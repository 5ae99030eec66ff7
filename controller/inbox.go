package controller

import (
	"context"

	"elevdispatch/types"
)

// Inbox holds one channel per inbound event kind.
//
// Channels are unbuffered: a single publisher blocks on every send, so events
// reach the control loop in the order they were published even across kinds.
type Inbox struct {
	FloorCalls chan types.FloorCall
	CarCalls   chan types.CarCall
	Stops      chan types.CarStopped
	Idles      chan types.CarIdle
}

func NewInbox() Inbox {
	return Inbox{
		FloorCalls: make(chan types.FloorCall),
		CarCalls:   make(chan types.CarCall),
		Stops:      make(chan types.CarStopped),
		Idles:      make(chan types.CarIdle),
	}
}

// Publish sends every event of `batch` to the control loop, in batch order.
func (in Inbox) Publish(ctx context.Context, batch types.EventBatch) error {
	for _, call := range batch.FloorCalls {
		select {
		case in.FloorCalls <- call:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, call := range batch.CarCalls {
		select {
		case in.CarCalls <- call:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, stop := range batch.Stops {
		select {
		case in.Stops <- stop:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, idle := range batch.Idles {
		select {
		case in.Idles <- idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
