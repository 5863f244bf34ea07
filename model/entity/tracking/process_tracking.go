package tracking

import "time"

// Process step statuses. Forward-only in the normal flow; Waiting is
// reachable again only through an explicit revert.
const (
	StatusWaiting    = 0
	StatusInProgress = 1
	StatusDone       = 2
)

// ProcessTracking is the per-lot, per-step progress row. Exactly one row
// exists per (lot, routing link) once seeded; rows are never deleted.
type ProcessTracking struct {
	ID                 uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	OrderInboundID     uint       `gorm:"column:order_inbound_id;not null;uniqueIndex:idx_tracking_lot_step" json:"order_inbound_id"`
	OrderItemRoutingID uint       `gorm:"column:order_item_routing_id;not null;uniqueIndex:idx_tracking_lot_step" json:"order_item_routing_id"`
	ProcessStatus      int        `gorm:"column:process_status;not null;default:0" json:"process_status"`
	ProcessStartTime   *time.Time `gorm:"column:process_start_time" json:"process_start_time,omitempty"`
}

func (ProcessTracking) TableName() string {
	return "process_tracking"
}

// ValidStatus reports whether s is one of the three step statuses.
func ValidStatus(s int) bool {
	return s == StatusWaiting || s == StatusInProgress || s == StatusDone
}
