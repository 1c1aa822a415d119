package dag

// Snapshot is a consistent read-only view of the DAG. Every read made through
// one Snapshot observes the same state, even if units are written
// concurrently.
type Snapshot interface {
	// GetUnit returns a unit by id, or a KeyNotFound StoreErr.
	GetUnit(unit string) (*Unit, error)
	// FreeUnits returns the free units ordered by unit id.
	FreeUnits() ([]*Unit, error)
	// MainChainIndexDesc calls fn on units ordered by main chain index
	// descending, ties broken by unit id, followed by the units without main
	// chain index ordered by unit id. Iteration stops when fn returns false or
	// an error.
	MainChainIndexDesc(fn func(*Unit) (bool, error)) error
	// IsArchived reports whether the unit was archived.
	IsArchived(unit string) (bool, error)
}

// Store is an interface for backend stores.
type Store interface {
	// View runs fn against a consistent snapshot of the DAG. The snapshot must
	// not be used after fn returns.
	View(fn func(Snapshot) error) error
	// SetUnit inserts or replaces a unit.
	SetUnit(unit *Unit) error
	// SetArchived marks a unit as archived.
	SetArchived(unit string) error
	// ReadWitnesses returns this node's witness list, empty if none is set.
	ReadWitnesses() ([]string, error)
	// InsertWitnesses records this node's witness list.
	InsertWitnesses(witnesses []string) error
	// Close closes the store.
	Close() error
	// StorePath returns the path of the database files, if any.
	StorePath() string
}
