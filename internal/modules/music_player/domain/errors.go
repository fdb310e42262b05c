package domain

import "errors"

// ErrQueueFull is returned when a track is enqueued into a queue at capacity.
var ErrQueueFull = errors.New("queue is full")
