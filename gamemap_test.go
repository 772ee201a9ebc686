package main

import "testing"

func TestBombCellEncoding(t *testing.T) {
	// serial 0 must stay distinguishable from an empty cell
	if BombCellMark(0) == EmptyCell {
		t.Fatal("serial 0 encodes to the empty sentinel")
	}
	for serial := 0; serial < 8; serial++ {
		got, ok := BombCellSerial(BombCellMark(serial))
		if !ok || got != serial {
			t.Errorf("round trip for serial %d: got %d, ok=%v", serial, got, ok)
		}
	}
	if _, ok := BombCellSerial(EmptyCell); ok {
		t.Error("empty cell decoded as owned")
	}
}

func TestNewGameMapLayers(t *testing.T) {
	m := NewGameMap()

	for _, name := range []string{LayerObjects, LayerBombs, LayerPowerups} {
		l := m.Layer(name)
		if l == nil {
			t.Fatalf("missing layer %q", name)
		}
		if len(l.Data) != m.Width*m.Height {
			t.Errorf("layer %q: %d cells, want %d", name, len(l.Data), m.Width*m.Height)
		}
	}
	if m.Layer("nope") != nil {
		t.Error("unknown layer should be nil")
	}
	if len(m.SpawnOrder) != 8 {
		t.Errorf("spawn order has %d slots, want 8", len(m.SpawnOrder))
	}

	// every spawn point must start clear of crates
	for _, sp := range m.SpawnOrder {
		if m.Cell(LayerObjects, sp.Col, sp.Row) != EmptyCell {
			t.Errorf("spawn point (%d,%d) starts blocked", sp.Col, sp.Row)
		}
	}
}

func TestSetCellBounds(t *testing.T) {
	m := NewGameMap()

	m.SetCell(LayerBombs, -1, 0, 5)
	m.SetCell(LayerBombs, m.Width, 0, 5)
	m.SetCell(LayerBombs, 0, m.Height, 5)

	for i, cell := range m.Layer(LayerBombs).Data {
		if cell != EmptyCell {
			t.Fatalf("out-of-bounds write landed at index %d", i)
		}
	}

	m.SetCell(LayerBombs, 2, 3, BombCellMark(4))
	if got := m.Cell(LayerBombs, 2, 3); got != BombCellMark(4) {
		t.Errorf("cell (2,3) = %d, want %d", got, BombCellMark(4))
	}
	if idx := m.CellIndex(2, 3); idx != 3*m.Width+2 {
		t.Errorf("cell index = %d, want %d", idx, 3*m.Width+2)
	}
}

func TestClearOwnedBombs(t *testing.T) {
	m := NewGameMap()
	m.SetCell(LayerBombs, 1, 1, BombCellMark(2))
	m.SetCell(LayerBombs, 5, 5, BombCellMark(2))
	m.SetCell(LayerBombs, 3, 3, BombCellMark(4))

	m.ClearOwnedBombs(2)

	if m.Cell(LayerBombs, 1, 1) != EmptyCell || m.Cell(LayerBombs, 5, 5) != EmptyCell {
		t.Error("owner's bombs not scrubbed")
	}
	if m.Cell(LayerBombs, 3, 3) != BombCellMark(4) {
		t.Error("another owner's bomb was scrubbed")
	}
}
