package tablekit

import "fmt"

// Transaction runs fn inside an isolated transaction scope on a
// dedicated pooled connection. The scope enters at level 1; fn may nest
// Begin/Commit freely, as sub-levels of the same physical transaction. An error from fn aborts everything and is
// re-raised wrapped; success commits down to level 0. The connection is
// released back to the pool on every path.
func (db *DB) Transaction(fn func(tx *Session) error) error {
	s := db.Session()
	defer s.Release()

	if err := s.Begin(); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		_ = s.Abort()
		return fmt.Errorf("transaction: %w", err)
	}
	for s.Level() > 0 {
		if err := s.Commit(); err != nil {
			_ = s.Abort()
			return err
		}
	}
	return nil
}
