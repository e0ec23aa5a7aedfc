package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domainpricing "stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
)

// RoomRepository keeps physical rooms in memory.
type RoomRepository struct {
	mu    sync.RWMutex
	items map[domainrooms.RoomID]domainrooms.PhysicalRoom
}

func NewRoomRepository(seed ...domainrooms.PhysicalRoom) *RoomRepository {
	repo := &RoomRepository{items: make(map[domainrooms.RoomID]domainrooms.PhysicalRoom, len(seed))}
	for _, r := range seed {
		repo.items[r.ID] = cloneRoom(r)
	}
	return repo
}

func cloneRoom(r domainrooms.PhysicalRoom) domainrooms.PhysicalRoom {
	r.Rules = append([]domainpricing.AdjustmentRule(nil), r.Rules...)
	return r
}

func (r *RoomRepository) sorted(keep func(domainrooms.PhysicalRoom) bool) []domainrooms.PhysicalRoom {
	out := make([]domainrooms.PhysicalRoom, 0)
	for _, room := range r.items {
		if keep(room) {
			out = append(out, cloneRoom(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *RoomRepository) ByProperty(ctx context.Context, id domainrooms.PropertyID) ([]domainrooms.PhysicalRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(room domainrooms.PhysicalRoom) bool { return room.PropertyID == id }), nil
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (domainrooms.PhysicalRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.items[id]
	if !ok {
		return domainrooms.PhysicalRoom{}, fmt.Errorf("%w: %s", domainrooms.ErrRoomNotFound, id)
	}
	return cloneRoom(room), nil
}

// Search filters active rooms. Price bounds compare base price amounts.
func (r *RoomRepository) Search(ctx context.Context, filter domainrooms.SearchFilter) ([]domainrooms.PhysicalRoom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(room domainrooms.PhysicalRoom) bool {
		switch {
		case !room.Active:
			return false
		case filter.PropertyID != "" && room.PropertyID != filter.PropertyID:
			return false
		case filter.TypeID != "" && room.TypeID != filter.TypeID:
			return false
		case filter.MinPrice != nil && room.BasePrice.Amount.LessThan(filter.MinPrice.Amount):
			return false
		case filter.MaxPrice != nil && room.BasePrice.Amount.GreaterThan(filter.MaxPrice.Amount):
			return false
		}
		return true
	}), nil
}

func (r *RoomRepository) Save(ctx context.Context, room domainrooms.PhysicalRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[room.ID] = cloneRoom(room)
	return nil
}

var _ domainrooms.Repository = (*RoomRepository)(nil)
