package grid

// DoubleBuffer is a read/write pair of identically shaped fields. Passes read
// from Read, write all of Write and then Swap.
type DoubleBuffer struct {
	Read, Write *Field
}

func NewDoubleBuffer(width, height, components int) (db *DoubleBuffer, err error) {
	var (
		r, w *Field
	)
	if r, err = New(width, height, components); err != nil {
		return
	}
	if w, err = New(width, height, components); err != nil {
		return
	}
	db = &DoubleBuffer{Read: r, Write: w}
	return
}

// Swap exchanges the roles of the two fields without copying.
func (db *DoubleBuffer) Swap() {
	db.Read, db.Write = db.Write, db.Read
}

func (db *DoubleBuffer) Dims() (width, height int) { return db.Read.Dims() }
