package repository

// Scope narrows a reconciliation query to a product, a store, or every
// store of a sales rep. Empty scope means the whole universe.
type Scope struct {
	ProductID  *uint
	StoreID    *uint
	SalesRepID *uint
}

// ProductQty is one shipped-quantity aggregate row.
type ProductQty struct {
	ProductID uint `gorm:"column:product_id"`
	Quantity  int  `gorm:"column:quantity"`
}

// ProductSales is one sold/returned aggregate row.
type ProductSales struct {
	ProductID   uint `gorm:"column:product_id"`
	QtySold     int  `gorm:"column:qty_sold"`
	QtyReturned int  `gorm:"column:qty_returned"`
}

// StoreQty / StoreSales / RepQty / RepSales back the in-list batch
// aggregates used by the stats fallback path.
type StoreQty struct {
	StoreID  uint `gorm:"column:store_id"`
	Quantity int  `gorm:"column:quantity"`
}

type StoreSales struct {
	StoreID     uint  `gorm:"column:store_id"`
	QtySold     int   `gorm:"column:qty_sold"`
	QtyReturned int   `gorm:"column:qty_returned"`
	Received    int64 `gorm:"column:received"`
}

type RepQty struct {
	SalesRepID uint `gorm:"column:sales_rep_id"`
	Quantity   int  `gorm:"column:quantity"`
}

type RepSales struct {
	SalesRepID  uint  `gorm:"column:sales_rep_id"`
	QtySold     int   `gorm:"column:qty_sold"`
	QtyReturned int   `gorm:"column:qty_returned"`
	Received    int64 `gorm:"column:received"`
}

// ValueCount backs the filter-option catalogue. Label may be empty when it
// is the same as Value.
type ValueCount struct {
	Value string `gorm:"column:value"`
	Label string `gorm:"column:label"`
	Count int64  `gorm:"column:count"`
}
