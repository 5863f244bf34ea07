package tracking

import (
	"time"

	"gorm.io/gorm"

	trackingEntity "mes.GO/model/entity/tracking"
)

type TrackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// Tx returns a repository bound to an open transaction.
func (r *TrackingRepository) Tx(tx *gorm.DB) *TrackingRepository {
	return &TrackingRepository{db: tx}
}

func (r *TrackingRepository) Insert(rows []trackingEntity.ProcessTracking) error {
	return r.db.Create(&rows).Error
}

func (r *TrackingRepository) FindByID(id uint) (*trackingEntity.ProcessTracking, error) {
	var row trackingEntity.ProcessTracking
	if err := r.db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *TrackingRepository) Save(row *trackingEntity.ProcessTracking) error {
	return r.db.Save(row).Error
}

func (r *TrackingRepository) CountForLot(inboundID uint) (int64, error) {
	var n int64
	err := r.db.Model(&trackingEntity.ProcessTracking{}).
		Where("order_inbound_id = ?", inboundID).
		Count(&n).Error
	return n, err
}

func (r *TrackingRepository) FindForLot(inboundID uint) ([]trackingEntity.ProcessTracking, error) {
	var rows []trackingEntity.ProcessTracking
	err := r.db.Where("order_inbound_id = ?", inboundID).Order("id").Find(&rows).Error
	return rows, err
}

// CompleteEarlier force-completes every step of the lot whose position
// precedes processNo and is not already done. One bulk UPDATE, meant to
// run in the same transaction as the triggering status change.
func (r *TrackingRepository) CompleteEarlier(inboundID uint, processNo int) (int64, error) {
	const query = `
UPDATE process_tracking
SET process_status = ?
WHERE order_inbound_id = ?
  AND process_status <> ?
  AND order_item_routing_id IN (
      SELECT id FROM order_item_routing WHERE process_no < ?
  )`

	res := r.db.Exec(query, trackingEntity.StatusDone, inboundID,
		trackingEntity.StatusDone, processNo)
	return res.RowsAffected, res.Error
}

// Row is one tracking row joined with its routing position, as shown on
// the progress board.
type Row struct {
	ID               uint       `json:"id"`
	OrderInboundID   uint       `json:"order_inbound_id"`
	OrderItemID      uint       `json:"order_item_id"`
	ProcessNo        int        `json:"process_no"`
	ProcessName      string     `json:"process_name"`
	ProcessTime      int        `json:"process_time"`
	ProcessStatus    int        `json:"process_status"`
	ProcessStartTime *time.Time `json:"process_start_time,omitempty"`
}

// ViewForLot reads the lot's progress rows joined through the routing
// link to the catalog step, ordered by process_no ascending.
func (r *TrackingRepository) ViewForLot(inboundID uint) ([]Row, error) {
	const query = `
SELECT pt.id,
       pt.order_inbound_id,
       oir.order_item_id,
       oir.process_no,
       rt.process_name,
       rt.process_time,
       pt.process_status,
       pt.process_start_time
FROM process_tracking pt
JOIN order_item_routing oir ON oir.id = pt.order_item_routing_id
JOIN routing rt ON rt.routing_id = oir.routing_id
WHERE pt.order_inbound_id = ?
ORDER BY oir.process_no`

	var rows []Row
	if err := r.db.Raw(query, inboundID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// InProgressRow pairs a started row with its step duration, for the
// opt-in overdue sweep. The elapsed comparison happens in Go; date
// arithmetic is not portable between MySQL and the sqlite test driver.
type InProgressRow struct {
	ID               uint
	ProcessTime      int
	ProcessStartTime time.Time
}

func (r *TrackingRepository) FindInProgress() ([]InProgressRow, error) {
	const query = `
SELECT pt.id,
       rt.process_time,
       pt.process_start_time
FROM process_tracking pt
JOIN order_item_routing oir ON oir.id = pt.order_item_routing_id
JOIN routing rt ON rt.routing_id = oir.routing_id
WHERE pt.process_status = ?
  AND pt.process_start_time IS NOT NULL`

	var rows []InProgressRow
	if err := r.db.Raw(query, trackingEntity.StatusInProgress).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TrackingRepository) CompleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&trackingEntity.ProcessTracking{}).
		Where("id IN ?", ids).
		Update("process_status", trackingEntity.StatusDone)
	return res.RowsAffected, res.Error
}
