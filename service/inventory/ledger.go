package inventory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mes.GO/core/sequence"
	orderEntity "mes.GO/model/entity/order"
	inboundRepo "mes.GO/model/repository/inbound"
	outboundRepo "mes.GO/model/repository/outbound"
)

const (
	lotPrefix      = "LOT-"
	outboundPrefix = "OUT-"
	dateKeyLayout  = "20060102"
)

// SeedFunc runs inside the inbound registration transaction, right after
// the lot row is inserted. Wired to the tracking engine at startup.
type SeedFunc func(tx *gorm.DB, lot *orderEntity.OrderInbound) error

// Ledger owns inbound (receipt) and outbound (shipment) rows and the
// non-negative-remaining-balance invariant between them.
type Ledger struct {
	db        *gorm.DB
	inbounds  *inboundRepo.InboundRepository
	outbounds *outboundRepo.OutboundRepository
	seed      SeedFunc
	now       func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		db:        db,
		inbounds:  inboundRepo.NewInboundRepository(db),
		outbounds: outboundRepo.NewOutboundRepository(db),
		now:       time.Now,
	}
}

// OnInbound installs the tracking seed hook.
func (l *Ledger) OnInbound(seed SeedFunc) {
	l.seed = seed
}

// InboundRequest registers one receipt. InboundDate defaults to today.
type InboundRequest struct {
	OrderItemID uint      `json:"order_item_id"`
	Qty         int64     `json:"qty"`
	InboundDate time.Time `json:"inbound_date"`
	Note        string    `json:"note"`
}

// RegisterInbound creates a lot: validates the quantity, resolves the
// order item, allocates a LOT- number and inserts the row in one
// transaction, then seeds tracking rows through the hook. Number
// collisions with other instances are retried with backoff; the unique
// index on lot_no is the arbiter.
func (l *Ledger) RegisterInbound(req InboundRequest) (*orderEntity.OrderInbound, error) {
	if req.Qty <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, req.Qty)
	}
	item, err := l.inbounds.FindOrderItem(req.OrderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order item %d", ErrNotFound, req.OrderItemID)
		}
		return nil, fmt.Errorf("resolve order item: %w", err)
	}

	inboundDate := req.InboundDate
	if inboundDate.IsZero() {
		inboundDate = l.now()
	}

	// Serialize allocation within this instance so concurrent callers
	// never burn retries against each other.
	defer locks.lock("seq:" + lotPrefix)()

	var lot *orderEntity.OrderInbound
	err = sequence.WithRetry(func() error {
		return l.db.Transaction(func(tx *gorm.DB) error {
			no, err := sequence.Next(l.inbounds.Tx(tx), lotPrefix, l.now().Format(dateKeyLayout))
			if err != nil {
				return err
			}
			lot = &orderEntity.OrderInbound{
				OrderItemID:  item.OrderItemID,
				CustomerName: item.CustomerName,
				ItemName:     item.ItemName,
				ItemCode:     item.ItemCode,
				Qty:          req.Qty,
				Category:     item.Category,
				Note:         req.Note,
				InboundDate:  datatypes.Date(inboundDate),
				LotNo:        no,
			}
			if err := l.inbounds.Tx(tx).Insert(lot); err != nil {
				return err
			}
			if l.seed != nil {
				return l.seed(tx, lot)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// OutboundRequest registers one shipment against a lot.
type OutboundRequest struct {
	OrderInboundID uint  `json:"order_inbound_id"`
	Qty            int64 `json:"qty"`
}

// RegisterOutbound ships against a lot. The sum/compare/insert runs as
// one unit of work: the lot row is locked FOR UPDATE on MySQL, and a
// per-lot mutex linearizes callers within this instance, so two
// concurrent shipments can never both pass the balance check on a stale
// sum.
func (l *Ledger) RegisterOutbound(req OutboundRequest) (*orderEntity.OrderOutbound, error) {
	if req.Qty <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, req.Qty)
	}

	defer locks.lock(fmt.Sprintf("lot:%d", req.OrderInboundID))()
	defer locks.lock("seq:" + outboundPrefix)()

	var out *orderEntity.OrderOutbound
	err := sequence.WithRetry(func() error {
		return l.db.Transaction(func(tx *gorm.DB) error {
			lot, err := l.inbounds.Tx(tx).FindActiveForUpdate(req.OrderInboundID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: lot %d", ErrNotFound, req.OrderInboundID)
				}
				return fmt.Errorf("load lot: %w", err)
			}

			shipped, err := l.outbounds.Tx(tx).SumQtyByInbound(lot.OrderInboundID)
			if err != nil {
				return fmt.Errorf("sum shipped qty: %w", err)
			}
			remaining := lot.Qty - shipped
			if req.Qty > remaining {
				return fmt.Errorf("%w: remaining %d, requested %d", ErrInsufficientBalance, remaining, req.Qty)
			}

			no, err := sequence.Next(l.outbounds.Tx(tx), outboundPrefix, l.now().Format(dateKeyLayout))
			if err != nil {
				return err
			}
			out = &orderEntity.OrderOutbound{
				OrderInboundID: lot.OrderInboundID,
				CustomerName:   lot.CustomerName,
				ItemName:       lot.ItemName,
				ItemCode:       lot.ItemCode,
				Qty:            req.Qty,
				Category:       lot.Category,
				OutboundNo:     no,
				OutboundDate:   datatypes.Date(l.now()),
			}
			return l.outbounds.Tx(tx).Insert(out)
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInbound corrects a lot's quantity and note. The new quantity
// must still cover everything already shipped.
func (l *Ledger) UpdateInbound(id uint, qty int64, note string) (*orderEntity.OrderInbound, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	defer locks.lock(fmt.Sprintf("lot:%d", id))()

	var lot *orderEntity.OrderInbound
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lot, err = l.inbounds.Tx(tx).FindActiveForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lot %d", ErrNotFound, id)
			}
			return fmt.Errorf("load lot: %w", err)
		}
		shipped, err := l.outbounds.Tx(tx).SumQtyByInbound(id)
		if err != nil {
			return fmt.Errorf("sum shipped qty: %w", err)
		}
		if qty < shipped {
			return fmt.Errorf("%w: already shipped %d, new qty %d", ErrInsufficientBalance, shipped, qty)
		}
		lot.Qty = qty
		lot.Note = note
		return l.inbounds.Tx(tx).Save(lot)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// SoftDeleteInbound marks the lot deleted. Shipments and tracking rows
// stay as history; the lot stops accepting new shipments.
func (l *Ledger) SoftDeleteInbound(id uint) error {
	if err := l.inbounds.SoftDelete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: lot %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// SoftDeleteOutbound cancels a shipment, returning its quantity to the
// lot's remaining balance.
func (l *Ledger) SoftDeleteOutbound(id uint) error {
	if err := l.outbounds.SoftDelete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: outbound %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// ListActiveLots returns non-deleted lots annotated with their computed
// remaining balance.
func (l *Ledger) ListActiveLots() ([]inboundRepo.LotBalance, error) {
	return l.inbounds.ListActiveWithRemaining()
}

// ListOutbounds returns all active shipments.
func (l *Ledger) ListOutbounds() ([]orderEntity.OrderOutbound, error) {
	return l.outbounds.FindAll()
}

// keyedMutex hands out one mutex per key. Keys are never evicted; the
// key space here is small (two prefixes plus live lot ids).
type keyedMutex struct {
	m sync.Map
}

// locks is process-wide: the API modules each construct their own
// Ledger over the shared DB, and all of them must serialize on the
// same per-lot and per-prefix keys.
var locks keyedMutex

func (k *keyedMutex) lock(key string) func() {
	v, _ := k.m.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
