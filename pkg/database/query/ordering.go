package query

// The ordering of a returned set of records
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// After reports whether a record id lies past the cursor in this ordering
func (o Ordering) After(id uint64, cursor Cursor) bool {
	if len(cursor) == 0 {
		return true
	}

	if o == Descending {
		return id < cursor.ToUint64()
	}
	return id > cursor.ToUint64()
}
