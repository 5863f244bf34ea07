package inbound

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	orderEntity "mes.GO/model/entity/order"
)

type InboundRepository struct {
	db *gorm.DB
}

func NewInboundRepository(db *gorm.DB) *InboundRepository {
	return &InboundRepository{db: db}
}

// Tx returns a repository bound to an open transaction.
func (r *InboundRepository) Tx(tx *gorm.DB) *InboundRepository {
	return &InboundRepository{db: tx}
}

func (r *InboundRepository) Insert(in *orderEntity.OrderInbound) error {
	return r.db.Create(in).Error
}

// FindActive returns the lot when it exists and is not soft-deleted.
func (r *InboundRepository) FindActive(id uint) (*orderEntity.OrderInbound, error) {
	var in orderEntity.OrderInbound
	if err := r.db.First(&in, "order_inbound_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

// FindActiveForUpdate locks the lot row for the rest of the transaction.
// MySQL only; sqlite serializes writers on its own and rejects FOR UPDATE.
func (r *InboundRepository) FindActiveForUpdate(id uint) (*orderEntity.OrderInbound, error) {
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var in orderEntity.OrderInbound
	if err := q.First(&in, "order_inbound_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *InboundRepository) Save(in *orderEntity.OrderInbound) error {
	return r.db.Save(in).Error
}

// SoftDelete stamps deleted_at. History (outbound, tracking) stays.
func (r *InboundRepository) SoftDelete(id uint) error {
	res := r.db.Delete(&orderEntity.OrderInbound{}, "order_inbound_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MaxNumber returns the highest lot number starting with prefix.
// Reads through soft-deleted rows: the unique index still holds their
// numbers, so a reissued number would collide forever.
func (r *InboundRepository) MaxNumber(prefix string) (string, bool, error) {
	var no string
	err := r.db.Unscoped().
		Model(&orderEntity.OrderInbound{}).
		Select("lot_no").
		Where("lot_no LIKE ?", prefix+"%").
		Order("lot_no DESC").
		Limit(1).
		Scan(&no).Error
	if err != nil {
		return "", false, err
	}
	return no, no != "", nil
}

func (r *InboundRepository) FindOrderItem(id uint) (*orderEntity.OrderItem, error) {
	var item orderEntity.OrderItem
	if err := r.db.First(&item, "order_item_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LotBalance is one active lot annotated with its remaining balance
// (computed, never stored).
type LotBalance struct {
	OrderInboundID uint           `json:"order_inbound_id"`
	OrderItemID    uint           `json:"order_item_id"`
	LotNo          string         `json:"lot_no"`
	CustomerName   string         `json:"customer_name"`
	ItemName       string         `json:"item_name"`
	ItemCode       string         `json:"item_code"`
	Qty            int64          `json:"qty"`
	Category       string         `json:"category"`
	InboundDate    datatypes.Date `json:"inbound_date"`
	Remaining      int64          `json:"remaining"`
}

// ListActiveWithRemaining returns non-deleted lots with qty minus the
// cumulative shipped quantity, cancelled shipments excluded.
func (r *InboundRepository) ListActiveWithRemaining() ([]LotBalance, error) {
	const query = `
SELECT oi.order_inbound_id,
       oi.order_item_id,
       oi.lot_no,
       oi.customer_name,
       oi.item_name,
       oi.item_code,
       oi.qty,
       oi.category,
       oi.inbound_date,
       oi.qty - COALESCE((
           SELECT SUM(oo.qty) FROM order_outbound oo
           WHERE oo.order_inbound_id = oi.order_inbound_id
             AND oo.deleted_at IS NULL
       ), 0) AS remaining
FROM order_inbound oi
WHERE oi.deleted_at IS NULL
ORDER BY oi.order_inbound_id`

	var lots []LotBalance
	if err := r.db.Raw(query).Scan(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}
