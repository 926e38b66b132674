package types

type Record map[string]any

// Batch is an ordered, bounded slice of rows plus the cursor value marking
// its end. It only lives for one extract->encode->write cycle.
type Batch struct {
	Ordinal int
	Records []Record
	// EndCursor is the cursor value of the last row in the batch; nil for
	// full-refresh extraction where no cursor column is configured.
	EndCursor any
}

func (b *Batch) Len() int {
	return len(b.Records)
}
