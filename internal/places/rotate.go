package places

// DefaultBatchSize is the number of places served per turn.
const DefaultBatchSize = 8

// SelectBatch scans the candidate pool in order and collects up to batchSize
// records whose ID is not in alreadyShown, preserving pool order. It is
// deterministic: the same pool and shown set always yield the same batch.
//
// exhausted is true when fewer than batchSize unseen records exist in the
// whole pool, i.e. any future turn for this location will repeat or run dry.
// On exhaustion the batch still contains whatever unseen records remain,
// possibly none; the selector never wraps around to re-show old records, and
// an empty batch is not an error.
func SelectBatch(pool []Record, alreadyShown []string, batchSize int) (batch []Record, exhausted bool) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	shown := make(map[string]struct{}, len(alreadyShown))
	for _, id := range alreadyShown {
		shown[id] = struct{}{}
	}

	unseen := 0
	batch = make([]Record, 0, batchSize)
	for _, r := range pool {
		if _, ok := shown[r.ID]; ok {
			continue
		}
		unseen++
		if len(batch) < batchSize {
			batch = append(batch, r)
		}
	}

	return batch, unseen < batchSize
}

// IDs returns the ids of a batch, in order.
func IDs(batch []Record) []string {
	ids := make([]string, 0, len(batch))
	for _, r := range batch {
		ids = append(ids, r.ID)
	}
	return ids
}
