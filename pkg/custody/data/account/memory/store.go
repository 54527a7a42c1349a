package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/database/query"
)

type ById []*account.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

type store struct {
	mu      sync.Mutex
	records map[string]*account.Record
	last    uint64
}

// New returns a new in memory account.Store
func New() account.Store {
	return &store{
		records: make(map[string]*account.Record),
	}
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.records[address]; ok {
		return item.Clone(), nil
	}
	return nil, account.ErrAccountNotFound
}

// GetAllByOwner implements account.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*account.Record
	for _, item := range s.records {
		if item.Owner == owner {
			items = append(items, item)
		}
	}

	res := s.filter(items, cursor, limit, direction)
	if len(res) == 0 {
		return nil, account.ErrAccountNotFound
	}

	cloned := make([]*account.Record, len(res))
	for i, item := range res {
		cloned[i] = item.Clone()
	}
	return cloned, nil
}

// Apply implements account.Store.Apply
func (s *store) Apply(_ context.Context, changes ...*account.Change) error {
	if err := account.ValidateChanges(changes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, change := range changes {
		var currentVersion uint64
		if item, ok := s.records[change.Record.Address]; ok {
			currentVersion = item.Version
		}

		if currentVersion != change.ExpectedVersion {
			return account.ErrStaleState
		}
	}

	now := time.Now()
	for _, change := range changes {
		switch change.Type {
		case account.ChangeTypePut:
			if item, ok := s.records[change.Record.Address]; ok {
				item.Owner = change.Record.Owner
				item.Lamports = change.Record.Lamports
				item.Data = make([]byte, len(change.Record.Data))
				copy(item.Data, change.Record.Data)
				item.Version++
				item.LastUpdatedAt = now

				item.CopyTo(change.Record)
			} else {
				s.last++

				c := change.Record.Clone()
				c.Id = s.last
				c.Version = 1
				c.CreatedAt = now
				c.LastUpdatedAt = now
				s.records[c.Address] = c

				c.CopyTo(change.Record)
			}
		case account.ChangeTypeDelete:
			delete(s.records, change.Record.Address)
		}
	}

	return nil
}

func (s *store) filter(items []*account.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*account.Record {
	var res []*account.Record
	for _, item := range items {
		if direction.After(item.Id, cursor) {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	} else {
		sort.Sort(ById(res))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*account.Record)
	s.last = 0
}
