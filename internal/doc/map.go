package doc

// StepMap records how one primitive mutation moved positions, as triples of
// (start, oldSize, newSize) over the pre-mutation document. Triples are
// sorted by start and non-overlapping.
type StepMap struct {
	ranges []int
}

// NewStepMap builds a StepMap from flat (start, oldSize, newSize) triples.
func NewStepMap(ranges []int) StepMap {
	return StepMap{ranges: ranges}
}

// ReplacedRange builds the map for replacing [from, to) with newSize tokens.
func ReplacedRange(from, to, newSize int) StepMap {
	return StepMap{ranges: []int{from, to - from, newSize}}
}

// MapResult is a mapped position plus deletion info about the content the
// position sat in.
type MapResult struct {
	Pos int
	// Deleted reports that the token the position was associated toward
	// (per assoc) was removed.
	Deleted bool
	// DeletedAcross reports that the position sat strictly inside a removed
	// chunk, with content gone on both sides.
	DeletedAcross bool
}

// Map maps a position through the step, biased by assoc: -1 stays before
// content inserted at the position, +1 lands after it.
func (m StepMap) Map(pos, assoc int) int {
	return m.MapResult(pos, assoc).Pos
}

// MapResult maps a position and reports whether surrounding content was
// deleted.
func (m StepMap) MapResult(pos, assoc int) MapResult {
	diff := 0
	for i := 0; i+2 < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+1], m.ranges[i+2]
		end := start + oldSize
		if pos <= end {
			var side int
			switch {
			case oldSize == 0:
				side = assoc
			case pos == start:
				side = -1
			case pos == end:
				side = 1
			default:
				side = assoc
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			res := MapResult{Pos: result}
			res.DeletedAcross = pos > start && pos < end
			if assoc < 0 {
				res.Deleted = pos != start
			} else {
				res.Deleted = pos != end
			}
			return res
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// Mapping composes the step maps of an ordered sequence of mutations.
type Mapping struct {
	maps []StepMap
}

// AppendMap adds a step map to the end of the sequence.
func (m *Mapping) AppendMap(sm StepMap) {
	m.maps = append(m.maps, sm)
}

// AppendMapping adds all maps of another mapping.
func (m *Mapping) AppendMapping(o Mapping) {
	m.maps = append(m.maps, o.maps...)
}

// Len returns the number of composed step maps.
func (m Mapping) Len() int { return len(m.maps) }

// Map maps a position through every step in order.
func (m Mapping) Map(pos, assoc int) int {
	return m.MapResult(pos, assoc).Pos
}

// MapResult maps a position through every step, accumulating deletion info.
func (m Mapping) MapResult(pos, assoc int) MapResult {
	res := MapResult{Pos: pos}
	for _, sm := range m.maps {
		r := sm.MapResult(res.Pos, assoc)
		res.Pos = r.Pos
		res.Deleted = res.Deleted || r.Deleted
		res.DeletedAcross = res.DeletedAcross || r.DeletedAcross
	}
	return res
}

// MapRange maps a [from, to) range, keeping content inserted exactly at
// either boundary outside the range.
func (m Mapping) MapRange(from, to int) (int, int) {
	f := m.Map(from, 1)
	t := m.Map(to, -1)
	if t < f {
		t = f
	}
	return f, t
}
