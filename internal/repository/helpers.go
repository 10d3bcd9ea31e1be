package repository

import (
	"fmt"
	"strings"
)

func lowered(s string) string {
	return strings.ToLower(s)
}

// exactIDFirst ranks the exact primary-key hit ahead of substring matches
// when a numeric search term was given. id is already parsed, so the
// interpolation is safe.
func exactIDFirst(table string, id uint64) string {
	return fmt.Sprintf("CASE WHEN %s.id = %d THEN 0 ELSE 1 END", table, id)
}
