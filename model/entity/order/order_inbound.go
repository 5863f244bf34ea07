package order

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderInbound is one receipt ("lot"). LotNo is generated, globally unique.
// Rows are soft-deleted only; shipment and tracking history stays behind.
type OrderInbound struct {
	OrderInboundID uint           `gorm:"column:order_inbound_id;primaryKey;autoIncrement" json:"order_inbound_id,omitempty"`
	OrderItemID    uint           `gorm:"column:order_item_id;not null;index" json:"order_item_id"`
	CustomerName   string         `gorm:"column:customer_name;type:varchar(255);not null" json:"customer_name"`
	ItemName       string         `gorm:"column:item_name;type:varchar(255);not null" json:"item_name"`
	ItemCode       string         `gorm:"column:item_code;type:varchar(255);not null" json:"item_code"`
	Qty            int64          `gorm:"column:qty;not null" json:"qty"`
	Category       string         `gorm:"column:category;type:varchar(32);not null" json:"category"`
	Note           string         `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
	InboundDate    datatypes.Date `gorm:"column:inbound_date;not null" json:"inbound_date"`
	LotNo          string         `gorm:"column:lot_no;type:varchar(20);not null;uniqueIndex:idx_inbound_lot_no" json:"lot_no"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (OrderInbound) TableName() string {
	return "order_inbound"
}
