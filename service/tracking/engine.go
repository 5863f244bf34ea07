package tracking

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	orderEntity "mes.GO/model/entity/order"
	trackingEntity "mes.GO/model/entity/tracking"
	inboundRepo "mes.GO/model/repository/inbound"
	routingRepo "mes.GO/model/repository/routing"
	trackingRepo "mes.GO/model/repository/tracking"
)

var (
	ErrNotFound      = errors.New("tracking: reference not found")
	ErrInvalidStatus = errors.New("tracking: unknown process status")
)

// Engine drives the per-lot, per-step state machine. It owns
// process_tracking rows and reads lots and routing links by reference.
type Engine struct {
	db       *gorm.DB
	rows     *trackingRepo.TrackingRepository
	routings *routingRepo.RoutingRepository
	inbounds *inboundRepo.InboundRepository
	now      func() time.Time
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{
		db:       db,
		rows:     trackingRepo.NewTrackingRepository(db),
		routings: routingRepo.NewRoutingRepository(db),
		inbounds: inboundRepo.NewInboundRepository(db),
		now:      time.Now,
	}
}

// SeedForLotTx is the inbound registration hook: it runs inside the
// lot-creating transaction.
func (e *Engine) SeedForLotTx(tx *gorm.DB, lot *orderEntity.OrderInbound) error {
	_, err := e.seed(tx, lot.OrderInboundID, lot.OrderItemID)
	return err
}

// SeedForLot initializes one Waiting row per routing step of the lot's
// order item. Re-seeding an already-seeded lot returns the existing rows
// untouched; the (lot, step) unique index is the backstop.
func (e *Engine) SeedForLot(inboundID uint) ([]trackingEntity.ProcessTracking, error) {
	var rows []trackingEntity.ProcessTracking
	err := e.db.Transaction(func(tx *gorm.DB) error {
		lot, err := e.inbounds.Tx(tx).FindActive(inboundID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: lot %d", ErrNotFound, inboundID)
			}
			return fmt.Errorf("load lot: %w", err)
		}
		rows, err = e.seed(tx, lot.OrderInboundID, lot.OrderItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *Engine) seed(tx *gorm.DB, inboundID, orderItemID uint) ([]trackingEntity.ProcessTracking, error) {
	n, err := e.rows.Tx(tx).CountForLot(inboundID)
	if err != nil {
		return nil, fmt.Errorf("count tracking rows: %w", err)
	}
	if n > 0 {
		return e.rows.Tx(tx).FindForLot(inboundID)
	}

	links, err := e.routings.Tx(tx).LinksFor(orderItemID)
	if err != nil {
		return nil, fmt.Errorf("load routing links: %w", err)
	}
	if len(links) == 0 {
		// Lots without routing steps are valid; nothing to track.
		return nil, nil
	}

	rows := make([]trackingEntity.ProcessTracking, 0, len(links))
	for _, link := range links {
		rows = append(rows, trackingEntity.ProcessTracking{
			OrderInboundID:     inboundID,
			OrderItemRoutingID: link.ID,
			ProcessStatus:      trackingEntity.StatusWaiting,
		})
	}
	if err := e.rows.Tx(tx).Insert(rows); err != nil {
		return nil, fmt.Errorf("seed tracking rows: %w", err)
	}
	return rows, nil
}

// InitLots batch-initializes tracking for lots registered before the
// seeding hook existed. Duplicate ids collapse to one seeding each.
// All-or-nothing: one bad lot id rolls back the whole batch.
func (e *Engine) InitLots(inboundIDs []uint) ([]trackingEntity.ProcessTracking, error) {
	seen := make(map[uint]bool, len(inboundIDs))
	var all []trackingEntity.ProcessTracking
	err := e.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range inboundIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			lot, err := e.inbounds.Tx(tx).FindActive(id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: lot %d", ErrNotFound, id)
				}
				return fmt.Errorf("load lot: %w", err)
			}
			rows, err := e.seed(tx, lot.OrderInboundID, lot.OrderItemID)
			if err != nil {
				return err
			}
			all = append(all, rows...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Transition applies one status change. Setting the status a row already
// has is a no-op. Moving to InProgress stamps the start time when unset
// and force-completes every earlier step of the same lot in the same
// transaction: starting step N means everything before N is finished,
// whether or not the operator said so. An explicit revert to Waiting
// clears the start time.
func (e *Engine) Transition(id uint, newStatus int) (*trackingEntity.ProcessTracking, error) {
	if !trackingEntity.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, newStatus)
	}

	var row *trackingEntity.ProcessTracking
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = e.rows.Tx(tx).FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: tracking row %d", ErrNotFound, id)
			}
			return fmt.Errorf("load tracking row: %w", err)
		}

		if newStatus != row.ProcessStatus {
			row.ProcessStatus = newStatus
			if newStatus == trackingEntity.StatusWaiting {
				row.ProcessStartTime = nil
			}
		}

		if row.ProcessStatus == trackingEntity.StatusInProgress && row.ProcessStartTime == nil {
			now := e.now()
			row.ProcessStartTime = &now

			link, err := e.routings.Tx(tx).LinkByID(row.OrderItemRoutingID)
			if err != nil {
				return fmt.Errorf("load routing link: %w", err)
			}
			if _, err := e.rows.Tx(tx).CompleteEarlier(row.OrderInboundID, link.ProcessNo); err != nil {
				return fmt.Errorf("complete earlier steps: %w", err)
			}
		}

		return e.rows.Tx(tx).Save(row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// TransitionRequest is one element of a batch status update.
type TransitionRequest struct {
	ID            uint `json:"id"`
	ProcessStatus int  `json:"process_status"`
}

// TransitionResult reports the outcome of one batch element.
type TransitionResult struct {
	ID    uint                            `json:"id"`
	Row   *trackingEntity.ProcessTracking `json:"row,omitempty"`
	Error string                          `json:"error,omitempty"`
}

// BatchTransition applies Transition once per element, in order. Each
// element commits or fails on its own; a failure does not undo earlier
// elements. Callers get per-item results instead of one verdict.
func (e *Engine) BatchTransition(reqs []TransitionRequest) []TransitionResult {
	results := make([]TransitionResult, 0, len(reqs))
	for _, req := range reqs {
		res := TransitionResult{ID: req.ID}
		row, err := e.Transition(req.ID, req.ProcessStatus)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Row = row
		}
		results = append(results, res)
	}
	return results
}

// ViewForLot returns the lot's progress rows joined with their routing
// step, ordered by process position.
func (e *Engine) ViewForLot(inboundID uint) ([]trackingRepo.Row, error) {
	return e.rows.ViewForLot(inboundID)
}

// AutoCompleteOverdue finishes in-progress steps whose informational
// duration has fully elapsed. Opt-in: it only runs when the scheduler
// job is enabled, never as part of a transition.
func (e *Engine) AutoCompleteOverdue() (int64, error) {
	rows, err := e.rows.FindInProgress()
	if err != nil {
		return 0, err
	}
	now := e.now()
	var overdue []uint
	for _, row := range rows {
		deadline := row.ProcessStartTime.Add(time.Duration(row.ProcessTime) * time.Minute)
		if now.After(deadline) {
			overdue = append(overdue, row.ID)
		}
	}
	return e.rows.CompleteByIDs(overdue)
}
