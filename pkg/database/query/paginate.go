package query

import "strconv"

// PaginateQuery appends the cursor, ordering and limit clauses to a query of
// the form "SELECT ... WHERE (...)". The WHERE brackets are required since
// the cursor clause is joined with AND. Records are keyed by their id column.
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	nextArg := func(value interface{}) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if len(cursor) > 0 {
		comparison := " > "
		if direction == Descending {
			comparison = " < "
		}
		query += " AND id" + comparison + nextArg(cursor.ToUint64())
	}

	if direction == Descending {
		query += " ORDER BY id DESC"
	} else {
		query += " ORDER BY id ASC"
	}

	if limit > 0 {
		query += " LIMIT " + nextArg(limit)
	}

	return query, args
}
