package memory

import (
	"context"
	"sync"

	appoutbox "stayquote/internal/app/outbox"
)

// Sink receives records when the outbox is flushed.
type Sink func(ctx context.Context, records []appoutbox.EventRecord) error

// Outbox buffers records until Flush hands them to the sink. Without a sink they are kept
// and can be read with Records.
type Outbox struct {
	mu      sync.Mutex
	sink    Sink
	records []appoutbox.EventRecord
}

func NewOutbox(sink Sink) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sink == nil || len(o.records) == 0 {
		return nil
	}
	if err := o.sink(ctx, o.records); err != nil {
		return err
	}
	o.records = nil
	return nil
}

func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
