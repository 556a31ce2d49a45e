package cart

// Item is one cart line as the backend reports it.
type Item struct {
	MenuID    int64  `json:"menu_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// LineTotal is UnitPrice x Quantity in won.
func (i Item) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Snapshot is the cart as read at the moment the shopper pressed "pay".
type Snapshot struct {
	Items       []Item `json:"items"`
	TotalAmount int64  `json:"total_amount"`
}

// Empty reports whether the snapshot has nothing to order.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// ComputedTotal sums the line totals.
func (s Snapshot) ComputedTotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.LineTotal()
	}
	return total
}
