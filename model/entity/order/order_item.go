package order

// OrderItem represents the order_item master row a lot is received against.
type OrderItem struct {
	OrderItemID  uint   `gorm:"column:order_item_id;primaryKey;autoIncrement" json:"order_item_id,omitempty"`
	CustomerName string `gorm:"column:customer_name;type:varchar(255);not null" json:"customer_name"`
	ItemName     string `gorm:"column:item_name;type:varchar(255);not null" json:"item_name"`
	ItemCode     string `gorm:"column:item_code;type:varchar(255);not null" json:"item_code"`
	Category     string `gorm:"column:category;type:varchar(32);not null;default:NORMAL" json:"category"`
	Color        string `gorm:"column:color;type:varchar(100)" json:"color,omitempty"`
	Note         string `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_item"
}
