package main

// Layer names the room map knows about. The client renders the static
// ground/wall tiles itself; the server only tracks the mutable content.
const (
	LayerObjects  = "objects"
	LayerBombs    = "bombs"
	LayerPowerups = "powerups"
)

const (
	MapWidth  = 25
	MapHeight = 15
)

// EmptyCell marks an unoccupied map cell. The bombs layer stores
// ownerSerial+1 so that serial 0 stays distinguishable from empty.
const EmptyCell = 0

// BombCellMark encodes a bomb owner's serial for storage in the bombs layer.
func BombCellMark(serial int) int { return serial + 1 }

// BombCellSerial decodes a bombs-layer cell back to an owner serial.
// ok is false for an empty cell.
func BombCellSerial(cell int) (serial int, ok bool) {
	if cell == EmptyCell {
		return 0, false
	}
	return cell - 1, true
}

// Layer is one named flat grid of per-cell codes, row*width+col indexed.
type Layer struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// SpawnPoint is a fixed map coordinate players spawn at.
type SpawnPoint struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// defaultSpawnOrder lists the fixed spawn slots; roster capacity equals its
// length. Corners first, then edge midpoints.
var defaultSpawnOrder = []SpawnPoint{
	{Col: 1, Row: 1},
	{Col: 23, Row: 1},
	{Col: 1, Row: 13},
	{Col: 23, Row: 13},
	{Col: 11, Row: 1},
	{Col: 11, Row: 13},
	{Col: 1, Row: 7},
	{Col: 23, Row: 7},
}

// GameMap is a room's mutable tile state: parallel flat layers plus the
// fixed spawn slot list.
type GameMap struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Layers     []Layer      `json:"layers"`
	SpawnOrder []SpawnPoint `json:"spawn_order"`
}

// NewGameMap builds the starting map: destructible crates everywhere in the
// interior except on pillar cells and around spawn points, empty bombs and
// powerups layers.
func NewGameMap() *GameMap {
	m := &GameMap{
		Width:      MapWidth,
		Height:     MapHeight,
		SpawnOrder: defaultSpawnOrder,
	}
	m.Layers = []Layer{
		{Name: LayerObjects, Data: buildObjects(m.Width, m.Height, m.SpawnOrder)},
		{Name: LayerBombs, Data: make([]int, m.Width*m.Height)},
		{Name: LayerPowerups, Data: make([]int, m.Width*m.Height)},
	}
	return m
}

// buildObjects fills the interior with crates (1), keeping pillar cells and
// a one-tile clearance around each spawn point free.
func buildObjects(width, height int, spawns []SpawnPoint) []int {
	data := make([]int, width*height)
	for row := 1; row < height-1; row++ {
		for col := 1; col < width-1; col++ {
			if col%2 == 0 && row%2 == 0 {
				continue // pillar cell, wall in the client's static layer
			}
			if nearSpawn(col, row, spawns) {
				continue
			}
			data[row*width+col] = 1
		}
	}
	return data
}

func nearSpawn(col, row int, spawns []SpawnPoint) bool {
	for _, sp := range spawns {
		dc := col - sp.Col
		dr := row - sp.Row
		if dc >= -1 && dc <= 1 && dr >= -1 && dr <= 1 {
			return true
		}
	}
	return false
}

// Layer returns the named layer, or nil if the map doesn't carry it.
func (m *GameMap) Layer(name string) *Layer {
	for i := range m.Layers {
		if m.Layers[i].Name == name {
			return &m.Layers[i]
		}
	}
	return nil
}

// InBounds reports whether a tile coordinate is on the map. Client-reported
// coordinates go through this before any cell write.
func (m *GameMap) InBounds(col, row int) bool {
	return col >= 0 && col < m.Width && row >= 0 && row < m.Height
}

// CellIndex converts a tile coordinate to a flat layer index.
func (m *GameMap) CellIndex(col, row int) int {
	return row*m.Width + col
}

// Cell reads a cell from the named layer, EmptyCell when out of bounds or
// the layer is missing.
func (m *GameMap) Cell(layer string, col, row int) int {
	l := m.Layer(layer)
	if l == nil || !m.InBounds(col, row) {
		return EmptyCell
	}
	return l.Data[m.CellIndex(col, row)]
}

// SetCell writes a cell in the named layer, ignoring out-of-bounds
// coordinates and unknown layers.
func (m *GameMap) SetCell(layer string, col, row, value int) {
	l := m.Layer(layer)
	if l == nil || !m.InBounds(col, row) {
		return
	}
	l.Data[m.CellIndex(col, row)] = value
}

// ClearOwnedBombs zeroes every bombs-layer cell owned by the given serial.
// Called on disconnect so a departed player's bombs don't linger as
// uncleared hazards.
func (m *GameMap) ClearOwnedBombs(serial int) {
	l := m.Layer(LayerBombs)
	if l == nil {
		return
	}
	for i, cell := range l.Data {
		if owner, ok := BombCellSerial(cell); ok && owner == serial {
			l.Data[i] = EmptyCell
		}
	}
}
