package geomodel

// Batch is a row-major matrix of encoded vectors, one row per input record.
// Row order matches the order of the records the batch was built from.
type Batch struct {
	Rows int
	Cols int
	Data []float32
}

func NewBatch(rows, cols int) Batch {
	return Batch{
		Rows: rows,
		Cols: cols,
		Data: make([]float32, rows*cols),
	}
}

// Row returns the i-th vector as a slice into the batch storage.
func (b Batch) Row(i int) []float32 {
	return b.Data[i*b.Cols : (i+1)*b.Cols]
}

// SetRow copies v into the i-th row. v must have exactly Cols elements.
func (b Batch) SetRow(i int, v []float32) {
	copy(b.Row(i), v)
}

func (b Batch) Equal(other Batch) bool {
	if b.Rows != other.Rows || b.Cols != other.Cols || len(b.Data) != len(other.Data) {
		return false
	}
	for i, v := range b.Data {
		if other.Data[i] != v {
			return false
		}
	}
	return true
}
