// Package repositorytest provides in-memory implementations of the entity repositories for tests.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/repository"
)

// NewRepo returns a repository.Repo backed by maps. Returned entities are copies.
func NewRepo() *repository.Repo {
	return &repository.Repo{
		LogsCursors: NewLogsCursorsRepo(),
		Tickets:     NewTicketsRepo(),
		Deposits:    NewDepositsRepo(),
	}
}

type cursorKey struct {
	chainID string
	address common.Address
}

type LogsCursorsRepo struct {
	mu      sync.Mutex
	cursors map[cursorKey]entity.LogsCursor
}

func NewLogsCursorsRepo() *LogsCursorsRepo {
	return &LogsCursorsRepo{cursors: make(map[cursorKey]entity.LogsCursor)}
}

func (r *LogsCursorsRepo) Ensure(_ context.Context, cursor *entity.LogsCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	c := *cursor
	key := cursorKey{cursor.ChainID, cursor.Address}
	if old, ok := r.cursors[key]; ok {
		c.CreatedAt = old.CreatedAt
		if old.LastFetchedBlock > c.LastFetchedBlock {
			c.LastFetchedBlock = old.LastFetchedBlock
		}
		if old.LastProcessedBlock > c.LastProcessedBlock {
			c.LastProcessedBlock = old.LastProcessedBlock
		}
	} else {
		c.CreatedAt = &now
	}
	c.UpdatedAt = &now
	r.cursors[key] = c
	return nil
}

func (r *LogsCursorsRepo) GetByChainIDAndAddress(_ context.Context, chainID string, addr common.Address) (*entity.LogsCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cursors[cursorKey{chainID, addr}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

type TicketsRepo struct {
	mu      sync.Mutex
	nextID  uint
	last    time.Time
	tickets []*entity.Ticket
}

// now returns strictly increasing timestamps, so that orderings by time are deterministic.
func (r *TicketsRepo) now() time.Time {
	now := time.Now()
	if !now.After(r.last) {
		now = r.last.Add(time.Nanosecond)
	}
	r.last = now
	return now
}

func NewTicketsRepo() *TicketsRepo {
	return &TicketsRepo{nextID: 1}
}

func copyTicket(t *entity.Ticket) *entity.Ticket {
	c := *t
	if t.RedeemTxHash != nil {
		hash := *t.RedeemTxHash
		c.RedeemTxHash = &hash
	}
	return &c
}

func (r *TicketsRepo) Ensure(_ context.Context, ticket *entity.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.L2ChainID == ticket.L2ChainID && t.CreationID == ticket.CreationID {
			t.RollupID = ticket.RollupID
			ticket.ID = t.ID
			return nil
		}
	}
	now := r.now()
	ticket.ID = r.nextID
	r.nextID++
	stored := copyTicket(ticket)
	stored.RedeemTxHash = nil
	stored.CreatedAt = &now
	stored.UpdatedAt = &now
	stored.CheckedAt = &now
	r.tickets = append(r.tickets, stored)
	return nil
}

func (r *TicketsRepo) UpdateStatus(_ context.Context, ticket *entity.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == ticket.ID {
			now := r.now()
			t.Status = ticket.Status
			t.RedeemTxHash = copyTicket(ticket).RedeemTxHash
			t.UpdatedAt = &now
			t.CheckedAt = &now
			return nil
		}
	}
	return db.ErrNotFound
}

func (r *TicketsRepo) MarkChecked(_ context.Context, ids []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for _, id := range ids {
		for _, t := range r.tickets {
			if t.ID == id {
				t.CheckedAt = &now
			}
		}
	}
	return nil
}

// SetUpdatedAt moves the last update time of a ticket, so tests can age it.
func (r *TicketsRepo) SetUpdatedAt(id uint, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			t.UpdatedAt = &ts
		}
	}
}

// All returns copies of all stored tickets ordered by id.
func (r *TicketsRepo) All() []*entity.Ticket {
	return r.find(func(*entity.Ticket) bool { return true }, nil, 0)
}

func (r *TicketsRepo) find(filter func(*entity.Ticket) bool, less func(a, b *entity.Ticket) bool, limit uint) []*entity.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if filter(t) {
			res = append(res, copyTicket(t))
		}
	}
	if less != nil {
		sort.SliceStable(res, func(i, j int) bool { return less(res[i], res[j]) })
	}
	if limit > 0 && uint(len(res)) > limit {
		res = res[:limit]
	}
	return res
}

func (r *TicketsRepo) GetByCreationID(_ context.Context, creationID common.Hash) (*entity.Ticket, error) {
	res := r.find(func(t *entity.Ticket) bool { return t.CreationID == creationID }, nil, 1)
	if len(res) == 0 {
		return nil, db.ErrNotFound
	}
	return res[0], nil
}

func (r *TicketsRepo) FindByL1TxHash(_ context.Context, l1ChainID string, txHash common.Hash) ([]*entity.Ticket, error) {
	return r.find(func(t *entity.Ticket) bool {
		return t.L1ChainID == l1ChainID && t.L1TxHash == txHash
	}, func(a, b *entity.Ticket) bool {
		return a.MessageIndex < b.MessageIndex
	}, 0), nil
}

func (r *TicketsRepo) FindPending(_ context.Context, rollupID string, limit uint) ([]*entity.Ticket, error) {
	return r.find(func(t *entity.Ticket) bool {
		if t.RollupID != rollupID {
			return false
		}
		for _, status := range entity.PendingTicketStatuses {
			if t.Status == status {
				return true
			}
		}
		return false
	}, func(a, b *entity.Ticket) bool {
		if a.CheckedAt.Equal(*b.CheckedAt) {
			return a.ID < b.ID
		}
		return a.CheckedAt.Before(*b.CheckedAt)
	}, limit), nil
}

func (r *TicketsRepo) FindByStatus(_ context.Context, rollupID string, status entity.TicketStatus, limit uint) ([]*entity.Ticket, error) {
	return r.find(func(t *entity.Ticket) bool {
		return t.RollupID == rollupID && t.Status == status
	}, func(a, b *entity.Ticket) bool {
		return a.ID > b.ID
	}, limit), nil
}

func (r *TicketsRepo) FindStale(_ context.Context, rollupID string, createdBefore time.Time) ([]*entity.Ticket, error) {
	return r.find(func(t *entity.Ticket) bool {
		return t.RollupID == rollupID && t.Status == entity.TicketStatusCreated && t.L1BlockTime.Before(createdBefore)
	}, func(a, b *entity.Ticket) bool {
		return a.L1BlockTime.Before(b.L1BlockTime)
	}, 0), nil
}

func (r *TicketsRepo) FindRedeemable(_ context.Context, rollupID string, updatedBefore time.Time, limit uint) ([]*entity.Ticket, error) {
	return r.find(func(t *entity.Ticket) bool {
		return t.RollupID == rollupID && t.Status == entity.TicketStatusCreated &&
			t.RedeemTxHash == nil && t.UpdatedAt.Before(updatedBefore)
	}, func(a, b *entity.Ticket) bool {
		return a.UpdatedAt.Before(*b.UpdatedAt)
	}, limit), nil
}

type DepositsRepo struct {
	mu       sync.Mutex
	deposits []*entity.Deposit
}

func NewDepositsRepo() *DepositsRepo {
	return &DepositsRepo{}
}

func (r *DepositsRepo) Ensure(_ context.Context, deposit *entity.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deposits {
		if d.L1ChainID == deposit.L1ChainID && d.L1TxHash == deposit.L1TxHash && d.LogIndex == deposit.LogIndex {
			return nil
		}
	}
	now := time.Now()
	stored := *deposit
	stored.ID = uint(len(r.deposits) + 1)
	stored.CreatedAt = &now
	stored.UpdatedAt = &now
	r.deposits = append(r.deposits, &stored)
	return nil
}

func (r *DepositsRepo) FindByL1TxHash(_ context.Context, l1ChainID string, txHash common.Hash) ([]*entity.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.Deposit, 0, 1)
	for _, d := range r.deposits {
		if d.L1ChainID == l1ChainID && d.L1TxHash == txHash {
			c := *d
			res = append(res, &c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].LogIndex < res[j].LogIndex })
	return res, nil
}
