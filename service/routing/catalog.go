package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mes.GO/config"
	"mes.GO/core/cache"
	"mes.GO/core/sequence"
	orderEntity "mes.GO/model/entity/order"
	routingEntity "mes.GO/model/entity/routing"
	routingRepo "mes.GO/model/repository/routing"
)

var (
	ErrNotFound      = errors.New("routing: reference not found")
	ErrDuplicateCode = errors.New("routing: process code already exists")
	ErrDuplicateStep = errors.New("routing: duplicate step selection")
	ErrInvalidStep   = errors.New("routing: invalid step selection")
)

const (
	stepsCacheTag = "routing:steps"
	stepsCacheTTL = 60 // seconds
	stepsKeySet   = "routing:steps:keys"
)

// Catalog is the routing template: the process-step catalog plus the
// per-order-item step selection read by the tracking engine.
type Catalog struct {
	db   *gorm.DB
	repo *routingRepo.RoutingRepository
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db, repo: routingRepo.NewRoutingRepository(db)}
}

// StepInput creates one catalog step. ProcessTime is minutes.
type StepInput struct {
	ProcessCode string `json:"process_code"`
	ProcessName string `json:"process_name"`
	ProcessTime int    `json:"process_time"`
	Note        string `json:"note"`
}

// SaveStep adds a catalog step. Process codes are unique; the check is
// read-then-insert with the unique index catching the race.
func (c *Catalog) SaveStep(in StepInput) (*routingEntity.Routing, error) {
	exists, err := c.repo.ExistsByCode(in.ProcessCode)
	if err != nil {
		return nil, fmt.Errorf("check process code: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, in.ProcessCode)
	}
	step := &routingEntity.Routing{
		ProcessCode: in.ProcessCode,
		ProcessName: in.ProcessName,
		ProcessTime: in.ProcessTime,
		Note:        in.Note,
	}
	if err := c.repo.Insert(step); err != nil {
		if sequence.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, in.ProcessCode)
		}
		return nil, err
	}
	return step, nil
}

func (c *Catalog) ListSteps() ([]routingEntity.Routing, error) {
	return c.repo.FindAll()
}

// DeleteStep removes a catalog step and cascades the order-item links
// referencing it. Administrative and infrequent; cached step sequences
// of every item are flushed because any of them may have referenced it.
func (c *Catalog) DeleteStep(id uint) error {
	if err := c.repo.DeleteCascade(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: routing %d", ErrNotFound, id)
		}
		return err
	}
	c.flushStepsCache()
	return nil
}

// StepSelection picks one catalog step for an order item at a position.
type StepSelection struct {
	RoutingID uint `json:"routing_id"`
	ProcessNo int  `json:"process_no"`
}

// OrderItemInput creates an order item together with its step selection.
type OrderItemInput struct {
	CustomerName string          `json:"customer_name"`
	ItemName     string          `json:"item_name"`
	ItemCode     string          `json:"item_code"`
	Category     string          `json:"category"`
	Color        string          `json:"color"`
	Note         string          `json:"note"`
	Steps        []StepSelection `json:"steps"`
}

// CreateOrderItem stores the item and its routing links in one
// transaction. Positions are 1-based; an item never reuses a position or
// a catalog step.
func (c *Catalog) CreateOrderItem(in OrderItemInput) (*orderEntity.OrderItem, error) {
	seenNo := make(map[int]bool, len(in.Steps))
	seenStep := make(map[uint]bool, len(in.Steps))
	for _, sel := range in.Steps {
		if sel.ProcessNo < 1 {
			return nil, fmt.Errorf("%w: process_no %d", ErrInvalidStep, sel.ProcessNo)
		}
		if seenNo[sel.ProcessNo] || seenStep[sel.RoutingID] {
			return nil, fmt.Errorf("%w: routing %d at position %d", ErrDuplicateStep, sel.RoutingID, sel.ProcessNo)
		}
		seenNo[sel.ProcessNo] = true
		seenStep[sel.RoutingID] = true
	}

	item := &orderEntity.OrderItem{
		CustomerName: in.CustomerName,
		ItemName:     in.ItemName,
		ItemCode:     in.ItemCode,
		Category:     in.Category,
		Color:        in.Color,
		Note:         in.Note,
	}
	if item.Category == "" {
		item.Category = "NORMAL"
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if len(in.Steps) == 0 {
			return nil
		}
		links := make([]routingEntity.OrderItemRouting, 0, len(in.Steps))
		for _, sel := range in.Steps {
			if _, err := c.repo.Tx(tx).FindByID(sel.RoutingID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: routing %d", ErrNotFound, sel.RoutingID)
				}
				return err
			}
			links = append(links, routingEntity.OrderItemRouting{
				OrderItemID: item.OrderItemID,
				RoutingID:   sel.RoutingID,
				ProcessNo:   sel.ProcessNo,
			})
		}
		return c.repo.Tx(tx).InsertLinks(links)
	})
	if err != nil {
		return nil, err
	}
	c.invalidateSteps(item.OrderItemID)
	return item, nil
}

// StepsFor returns the ordered step sequence of an order item. Read-
// mostly: served from redis when configured, from the in-process cache
// otherwise.
func (c *Catalog) StepsFor(orderItemID uint) ([]routingRepo.Step, error) {
	key := stepsKey(orderItemID)

	if rc := config.RedisClient; rc != nil {
		if raw, err := rc.Get(config.RedisCtx(), key).Bytes(); err == nil {
			var steps []routingRepo.Step
			if json.Unmarshal(raw, &steps) == nil {
				return steps, nil
			}
		}
	} else if v, ok := cache.GetInstance().Get(key); ok {
		if steps, ok := v.([]routingRepo.Step); ok {
			return steps, nil
		}
	}

	steps, err := c.repo.StepsFor(orderItemID)
	if err != nil {
		return nil, err
	}

	if rc := config.RedisClient; rc != nil {
		if raw, err := json.Marshal(steps); err == nil {
			ctx := config.RedisCtx()
			rc.Set(ctx, key, raw, stepsCacheTTL*time.Second)
			rc.SAdd(ctx, stepsKeySet, key)
		}
	} else {
		cache.GetInstance().Set(key, steps, stepsCacheTTL, []string{stepsCacheTag})
	}
	return steps, nil
}

func stepsKey(orderItemID uint) string {
	return fmt.Sprintf("routing:steps:%d", orderItemID)
}

func (c *Catalog) invalidateSteps(orderItemID uint) {
	key := stepsKey(orderItemID)
	if rc := config.RedisClient; rc != nil {
		ctx := config.RedisCtx()
		rc.Del(ctx, key)
		rc.SRem(ctx, stepsKeySet, key)
		return
	}
	cache.GetInstance().Delete(key)
}

func (c *Catalog) flushStepsCache() {
	if rc := config.RedisClient; rc != nil {
		ctx := config.RedisCtx()
		if keys, err := rc.SMembers(ctx, stepsKeySet).Result(); err == nil && len(keys) > 0 {
			rc.Del(ctx, keys...)
		}
		rc.Del(ctx, stepsKeySet)
		return
	}
	cache.GetInstance().DeleteByTag(stepsCacheTag)
}
