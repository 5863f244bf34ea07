package outbound

import (
	"gorm.io/gorm"

	orderEntity "mes.GO/model/entity/order"
)

type OutboundRepository struct {
	db *gorm.DB
}

func NewOutboundRepository(db *gorm.DB) *OutboundRepository {
	return &OutboundRepository{db: db}
}

// Tx returns a repository bound to an open transaction.
func (r *OutboundRepository) Tx(tx *gorm.DB) *OutboundRepository {
	return &OutboundRepository{db: tx}
}

func (r *OutboundRepository) Insert(out *orderEntity.OrderOutbound) error {
	return r.db.Create(out).Error
}

func (r *OutboundRepository) FindByID(id uint) (*orderEntity.OrderOutbound, error) {
	var out orderEntity.OrderOutbound
	if err := r.db.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OutboundRepository) FindAll() ([]orderEntity.OrderOutbound, error) {
	var outs []orderEntity.OrderOutbound
	err := r.db.Order("id").Find(&outs).Error
	return outs, err
}

func (r *OutboundRepository) FindByInbound(inboundID uint) ([]orderEntity.OrderOutbound, error) {
	var outs []orderEntity.OrderOutbound
	err := r.db.Where("order_inbound_id = ?", inboundID).Order("id").Find(&outs).Error
	return outs, err
}

// SoftDelete cancels a shipment; its quantity returns to the lot balance
// because SumQtyByInbound skips deleted rows.
func (r *OutboundRepository) SoftDelete(id uint) error {
	res := r.db.Delete(&orderEntity.OrderOutbound{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumQtyByInbound returns the cumulative shipped quantity for a lot,
// 0 when nothing has shipped.
func (r *OutboundRepository) SumQtyByInbound(inboundID uint) (int64, error) {
	const query = `SELECT COALESCE(SUM(qty), 0) FROM order_outbound WHERE order_inbound_id = ? AND deleted_at IS NULL`
	var total int64
	err := r.db.Raw(query, inboundID).Scan(&total).Error
	return total, err
}

// MaxNumber returns the highest outbound number starting with prefix,
// soft-deleted shipments included (their numbers stay taken).
func (r *OutboundRepository) MaxNumber(prefix string) (string, bool, error) {
	var no string
	err := r.db.Unscoped().
		Model(&orderEntity.OrderOutbound{}).
		Select("outbound_no").
		Where("outbound_no LIKE ?", prefix+"%").
		Order("outbound_no DESC").
		Limit(1).
		Scan(&no).Error
	if err != nil {
		return "", false, err
	}
	return no, no != "", nil
}
