package routing

import (
	"gorm.io/gorm"

	routingEntity "mes.GO/model/entity/routing"
)

type RoutingRepository struct {
	db *gorm.DB
}

func NewRoutingRepository(db *gorm.DB) *RoutingRepository {
	return &RoutingRepository{db: db}
}

// Tx returns a repository bound to an open transaction.
func (r *RoutingRepository) Tx(tx *gorm.DB) *RoutingRepository {
	return &RoutingRepository{db: tx}
}

func (r *RoutingRepository) Insert(step *routingEntity.Routing) error {
	return r.db.Create(step).Error
}

func (r *RoutingRepository) ExistsByCode(code string) (bool, error) {
	var n int64
	err := r.db.Model(&routingEntity.Routing{}).Where("process_code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *RoutingRepository) FindAll() ([]routingEntity.Routing, error) {
	var steps []routingEntity.Routing
	err := r.db.Order("routing_id").Find(&steps).Error
	return steps, err
}

func (r *RoutingRepository) FindByID(id uint) (*routingEntity.Routing, error) {
	var step routingEntity.Routing
	if err := r.db.First(&step, "routing_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &step, nil
}

// DeleteCascade removes a catalog step and every order-item link that
// references it, in one transaction. Tracking rows stay as history.
func (r *RoutingRepository) DeleteCascade(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var step routingEntity.Routing
		if err := tx.First(&step, "routing_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("routing_id = ?", id).Delete(&routingEntity.OrderItemRouting{}).Error; err != nil {
			return err
		}
		return tx.Delete(&step).Error
	})
}

func (r *RoutingRepository) InsertLinks(links []routingEntity.OrderItemRouting) error {
	return r.db.Create(&links).Error
}

func (r *RoutingRepository) LinkByID(id uint) (*routingEntity.OrderItemRouting, error) {
	var link routingEntity.OrderItemRouting
	if err := r.db.First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// LinksFor returns the routing links of an order item ordered by
// process_no ascending.
func (r *RoutingRepository) LinksFor(orderItemID uint) ([]routingEntity.OrderItemRouting, error) {
	var links []routingEntity.OrderItemRouting
	err := r.db.Where("order_item_id = ?", orderItemID).Order("process_no").Find(&links).Error
	return links, err
}

// Step is one resolved routing position for an order item.
type Step struct {
	LinkID      uint   `json:"link_id"`
	RoutingID   uint   `json:"routing_id"`
	ProcessNo   int    `json:"process_no"`
	ProcessCode string `json:"process_code"`
	ProcessName string `json:"process_name"`
	ProcessTime int    `json:"process_time"`
}

// StepsFor resolves the ordered step sequence of an order item through
// the catalog.
func (r *RoutingRepository) StepsFor(orderItemID uint) ([]Step, error) {
	const query = `
SELECT oir.id AS link_id,
       rt.routing_id,
       oir.process_no,
       rt.process_code,
       rt.process_name,
       rt.process_time
FROM order_item_routing oir
JOIN routing rt ON rt.routing_id = oir.routing_id
WHERE oir.order_item_id = ?
ORDER BY oir.process_no`

	var steps []Step
	if err := r.db.Raw(query, orderItemID).Scan(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}
