package world

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/annel0/pixelsim/internal/vec"
	"github.com/annel0/pixelsim/internal/world/material"
)

// MeshTolerance допуск упрощения контуров в пикселях
const MeshTolerance = 1.0

// Mesh возвращает коллизионные контуры твёрдых пикселей чанка в локальных координатах.
// Перестраивается лениво после записи Solid/Object пикселей. До генерации возвращает nil.
func (c *Chunk) Mesh() [][]vec.Vec2Float {
	if !c.Ready() {
		return nil
	}
	if !c.meshValid {
		c.mesh = buildMesh(c.pixels)
		c.meshValid = true
	}
	return c.mesh
}

type meshEdge struct {
	from, to vec.Vec2
}

func buildMesh(pixels []material.Instance) [][]vec.Vec2Float {
	solid := func(x, y int) bool {
		return InChunk(x, y) && affectsMesh(pixels[index(x, y)].Physics)
	}

	// Рёбра на границе твёрдой области, обход по часовой стрелке (ось Y вниз)
	var edges []meshEdge
	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			if !solid(x, y) {
				continue
			}
			if !solid(x, y-1) {
				edges = append(edges, meshEdge{vec.Vec2{X: x, Y: y}, vec.Vec2{X: x + 1, Y: y}})
			}
			if !solid(x+1, y) {
				edges = append(edges, meshEdge{vec.Vec2{X: x + 1, Y: y}, vec.Vec2{X: x + 1, Y: y + 1}})
			}
			if !solid(x, y+1) {
				edges = append(edges, meshEdge{vec.Vec2{X: x + 1, Y: y + 1}, vec.Vec2{X: x, Y: y + 1}})
			}
			if !solid(x-1, y) {
				edges = append(edges, meshEdge{vec.Vec2{X: x, Y: y + 1}, vec.Vec2{X: x, Y: y}})
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}

	outgoing := make(map[vec.Vec2][]int, len(edges))
	for i, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], i)
	}

	used := make([]bool, len(edges))
	var loops [][]vec.Vec2Float
	for i := range edges {
		if used[i] {
			continue
		}
		var loop []vec.Vec2
		for cur := i; cur >= 0; {
			used[cur] = true
			loop = append(loop, edges[cur].from)
			next := -1
			for _, j := range outgoing[edges[cur].to] {
				if !used[j] {
					next = j
					break
				}
			}
			cur = next
		}

		loop = collapseCollinear(loop)
		simplified := simplifyLoop(loop, MeshTolerance)
		if len(simplified) >= 3 {
			loops = append(loops, simplified)
		}
	}
	return loops
}

func collapseCollinear(loop []vec.Vec2) []vec.Vec2 {
	n := len(loop)
	if n < 3 {
		return loop
	}
	out := make([]vec.Vec2, 0, n)
	for i := range loop {
		prev := loop[(i+n-1)%n]
		cur := loop[i]
		next := loop[(i+1)%n]
		cross := (cur.X-prev.X)*(next.Y-cur.Y) - (cur.Y-prev.Y)*(next.X-cur.X)
		if cross != 0 {
			out = append(out, cur)
		}
	}
	return out
}

// simplifyLoop упрощает замкнутый контур алгоритмом Дугласа-Пекера
func simplifyLoop(loop []vec.Vec2, tolerance float64) []vec.Vec2Float {
	if len(loop) <= 4 {
		out := make([]vec.Vec2Float, len(loop))
		for i, p := range loop {
			out[i] = vec.Vec2Float{X: float64(p.X), Y: float64(p.Y)}
		}
		return out
	}
	ring := make(orb.Ring, 0, len(loop)+1)
	for _, p := range loop {
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	ring = append(ring, ring[0])

	ring = simplify.DouglasPeucker(tolerance).Ring(ring)
	if len(ring) < 4 {
		return nil
	}

	// Замыкающая точка совпадает с первой
	out := make([]vec.Vec2Float, 0, len(ring))
	for _, p := range ring[:len(ring)-1] {
		out = append(out, vec.Vec2Float{X: p.X(), Y: p.Y()})
	}
	return out
}
