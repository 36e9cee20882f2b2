package doc

import "testing"

func TestStepMapInsert(t *testing.T) {
	m := ReplacedRange(5, 5, 3)
	tests := []struct {
		pos, assoc, want int
	}{
		{4, 1, 4},
		{5, -1, 5},
		{5, 1, 8},
		{6, 1, 9},
		{6, -1, 9},
	}
	for _, tt := range tests {
		if got := m.Map(tt.pos, tt.assoc); got != tt.want {
			t.Errorf("Map(%d, %d) = %d, want %d", tt.pos, tt.assoc, got, tt.want)
		}
	}
}

func TestStepMapDelete(t *testing.T) {
	m := ReplacedRange(5, 8, 0)
	tests := []struct {
		pos, assoc    int
		want          int
		deleted       bool
		deletedAcross bool
	}{
		{4, 1, 4, false, false},
		{5, -1, 5, false, false},
		{5, 1, 5, true, false},
		{6, 1, 5, true, true},
		{7, -1, 5, true, true},
		{8, -1, 5, true, false},
		{8, 1, 5, false, false},
		{9, 1, 6, false, false},
	}
	for _, tt := range tests {
		r := m.MapResult(tt.pos, tt.assoc)
		if r.Pos != tt.want || r.Deleted != tt.deleted || r.DeletedAcross != tt.deletedAcross {
			t.Errorf("MapResult(%d, %d) = {%d %v %v}, want {%d %v %v}",
				tt.pos, tt.assoc, r.Pos, r.Deleted, r.DeletedAcross,
				tt.want, tt.deleted, tt.deletedAcross)
		}
	}
}

func TestStepMapReplace(t *testing.T) {
	// Replace 3 tokens at [2,5) with 5 new ones.
	m := ReplacedRange(2, 5, 5)
	if got := m.Map(2, -1); got != 2 {
		t.Errorf("start with assoc -1 = %d, want 2", got)
	}
	if got := m.Map(5, 1); got != 7 {
		t.Errorf("end with assoc 1 = %d, want 7", got)
	}
	if got := m.Map(9, 1); got != 11 {
		t.Errorf("later position = %d, want 11", got)
	}
}

func TestMappingShiftsByDelta(t *testing.T) {
	// An earlier edit that grows the document by delta shifts every later
	// position by exactly delta.
	// First edit grows the document by 6 tokens, second shrinks it by 4.
	var mp Mapping
	mp.AppendMap(ReplacedRange(3, 8, 11))
	mp.AppendMap(ReplacedRange(20, 24, 0))

	target := 40
	if got := mp.Map(target, 1); got != target+6-4 {
		t.Errorf("Map(%d) = %d, want %d", target, got, target+6-4)
	}
}

func TestMappingRangeKeepsEdgeInsertsOutside(t *testing.T) {
	var mp Mapping
	mp.AppendMap(ReplacedRange(10, 10, 4)) // insert at the range start

	from, to := mp.MapRange(10, 15)
	if from != 14 || to != 19 {
		t.Errorf("MapRange = [%d,%d), want [14,19)", from, to)
	}

	var mp2 Mapping
	mp2.AppendMap(ReplacedRange(15, 15, 4)) // insert at the range end
	from, to = mp2.MapRange(10, 15)
	if from != 10 || to != 15 {
		t.Errorf("MapRange = [%d,%d), want [10,15)", from, to)
	}

	var mp3 Mapping
	mp3.AppendMap(ReplacedRange(12, 12, 4)) // insert strictly inside
	from, to = mp3.MapRange(10, 15)
	if from != 10 || to != 19 {
		t.Errorf("MapRange = [%d,%d), want [10,19)", from, to)
	}
}

func TestMappingCollapseOnFullDeletion(t *testing.T) {
	var mp Mapping
	mp.AppendMap(ReplacedRange(5, 12, 0))

	from, to := mp.MapRange(6, 10)
	if from != to {
		t.Errorf("deleted range should collapse, got [%d,%d)", from, to)
	}
	r := mp.MapResult(6, 1)
	if !r.Deleted {
		t.Error("interior position should report deletion")
	}
}
