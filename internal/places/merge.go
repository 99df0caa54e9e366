package places

// Merge combines the geographic pool and the generative pool into one ranked
// candidate pool. Geographic records come first and are kept as-is;
// generative records whose normalized name collides with a geographic record
// are dropped as duplicates; the remaining generative records are appended
// after all geographic records. Each source's internal order is preserved.
// Records without an ID get one derived from their name, and duplicates
// within a single pool are collapsed keeping the first occurrence.
func Merge(geo, generated []Record) []Record {
	merged := make([]Record, 0, len(geo)+len(generated))
	seen := make(map[string]struct{}, len(geo)+len(generated))

	for _, r := range geo {
		if r.ID == "" {
			r.ID = NormalizeID(r.Name)
		}
		if _, dup := seen[r.ID]; dup || r.ID == "" {
			continue
		}
		seen[r.ID] = struct{}{}
		r.Source = SourceGeo
		merged = append(merged, r)
	}

	for _, r := range generated {
		if r.ID == "" {
			r.ID = NormalizeID(r.Name)
		}
		if _, dup := seen[r.ID]; dup || r.ID == "" {
			continue
		}
		seen[r.ID] = struct{}{}
		r.Source = SourceGenerative
		merged = append(merged, r)
	}

	return merged
}
