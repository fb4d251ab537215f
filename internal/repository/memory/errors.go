package memory

import "fmt"

// foreignKeyError mirrors the constraint failure a relational backend
// reports for a dangling reference.
type foreignKeyError struct {
	column string
	id     int64
}

func (e *foreignKeyError) Error() string {
	return fmt.Sprintf("foreign key violation: %s references missing id %d", e.column, e.id)
}

func errForeignKey(column string, id int64) error {
	return &foreignKeyError{column: column, id: id}
}
