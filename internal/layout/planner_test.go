package layout

import "testing"

func occupiedSet(positions ...Position) map[Position]struct{} {
	out := make(map[Position]struct{}, len(positions))
	for _, p := range positions {
		out[p] = struct{}{}
	}
	return out
}

func TestNextPositions_EmptyGrid(t *testing.T) {
	got := NextPositions(nil, 3, 5, 10)
	want := []Position{{0, 0}, {0, 1}, {0, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNextPositions_AppendsAfterLastColumn(t *testing.T) {
	occ := occupiedSet(Position{0, 0}, Position{0, 1})
	got := NextPositions(occ, 2, 5, 10)
	want := []Position{{0, 2}, {0, 3}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextPositions_SpillsIntoNewRow(t *testing.T) {
	occ := occupiedSet(Position{0, 0}, Position{0, 1}, Position{0, 2}, Position{0, 3})
	got := NextPositions(occ, 3, 5, 10)
	want := []Position{{0, 4}, {1, 0}, {1, 1}}
	if len(got) != 3 {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNextPositions_FillsSkippedEmptyRow(t *testing.T) {
	// Row 0 is empty but row 1 is occupied: row 0 is filled first.
	occ := occupiedSet(Position{1, 0})
	got := NextPositions(occ, 3, 2, 10)
	want := []Position{{0, 0}, {0, 1}, {1, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNextPositions_ShortResultWhenFull(t *testing.T) {
	occ := occupiedSet(Position{0, 0}, Position{0, 1}, Position{1, 0}, Position{1, 1})
	// 2x2 grid with all four cells taken: nothing fits, no error.
	got := NextPositions(occ, 3, 2, 2)
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestNextPositions_NeverCollidesOrExceedsBounds(t *testing.T) {
	occ := occupiedSet(Position{0, 2}, Position{1, 4}, Position{2, 0})
	got := NextPositions(occ, 20, 5, 4)
	seen := map[Position]struct{}{}
	for _, p := range got {
		if _, taken := occ[p]; taken {
			t.Fatalf("position %v collides with occupied set", p)
		}
		if _, dup := seen[p]; dup {
			t.Fatalf("position %v returned twice", p)
		}
		seen[p] = struct{}{}
		if p.Row < 0 || p.Row >= 4 || p.Column < 0 || p.Column >= 5 {
			t.Fatalf("position %v out of bounds", p)
		}
	}
}

func TestDocument_PlaceAndValidate(t *testing.T) {
	doc := &Document{ID: "wf-1", MaxRows: 2, MaxColumns: 2, CharBudget: 100}
	placed := doc.Place([]DataPart{
		{ID: "a", Name: "alpha", CharCount: 30, Enabled: true},
		{ID: "b", Name: "beta", CharCount: 30},
		{ID: "c", Name: "gamma", CharCount: 30},
		{ID: "d", Name: "delta", CharCount: 30},
		{ID: "e", Name: "epsilon", CharCount: 30},
	})
	// Only four cells exist.
	if len(placed) != 4 {
		t.Fatalf("placed %d parts, want 4", len(placed))
	}
	// Four parts at 30 chars exceed the budget of 100.
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected character budget violation")
	}
	doc.Remove("d")
	if err := doc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if doc.CharsRemaining() != 10 {
		t.Fatalf("chars remaining = %d, want 10", doc.CharsRemaining())
	}
}

func TestDocument_CollisionDetected(t *testing.T) {
	doc := &Document{
		MaxRows: 3, MaxColumns: 3,
		Parts: []DataPart{
			{ID: "a", Position: Position{0, 0}},
			{ID: "b", Position: Position{0, 0}},
		},
	}
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected collision error")
	}
}

func TestDocument_SetEnabled(t *testing.T) {
	doc := &Document{Parts: []DataPart{{ID: "a", Enabled: false}}}
	if !doc.SetEnabled("a", true) {
		t.Fatalf("part not found")
	}
	if !doc.Parts[0].Enabled {
		t.Fatalf("enablement flag not applied")
	}
	if doc.SetEnabled("missing", true) {
		t.Fatalf("expected false for unknown part")
	}
}
