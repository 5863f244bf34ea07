package order

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderOutbound is one shipment against a lot. Customer/item fields are
// denormalized from the inbound for reporting. OutboundNo is generated,
// globally unique.
type OrderOutbound struct {
	ID             uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	OrderInboundID uint           `gorm:"column:order_inbound_id;not null;index" json:"order_inbound_id"`
	CustomerName   string         `gorm:"column:customer_name;type:varchar(255);not null" json:"customer_name"`
	ItemName       string         `gorm:"column:item_name;type:varchar(255);not null" json:"item_name"`
	ItemCode       string         `gorm:"column:item_code;type:varchar(255);not null" json:"item_code"`
	Qty            int64          `gorm:"column:qty;not null" json:"qty"`
	Category       string         `gorm:"column:category;type:varchar(32);not null" json:"category"`
	OutboundNo     string         `gorm:"column:outbound_no;type:varchar(20);not null;uniqueIndex:idx_outbound_no" json:"outbound_no"`
	OutboundDate   datatypes.Date `gorm:"column:outbound_date;not null" json:"outbound_date"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (OrderOutbound) TableName() string {
	return "order_outbound"
}
