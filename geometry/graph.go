package geometry

import (
	"encoding/json"
	"image"
	"image/color"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// Cuboid 由顶点和四边形面组成的伪三维框
type Cuboid struct {
	Points []image.Point
	Faces  [][4]int
}

func decodeCuboid(obj model.ObjectJSON) (*Cuboid, error) {
	if len(obj.Points) == 0 {
		return nil, malformed(obj, "points are missing")
	}
	var coords [][]float64
	if err := json.Unmarshal(obj.Points, &coords); err != nil {
		return nil, malformed(obj, "decode cuboid points: %v", err)
	}
	pts, err := toPoints(coords)
	if err != nil {
		return nil, malformed(obj, "%v", err)
	}
	if len(obj.Faces) == 0 {
		return nil, malformed(obj, "cuboid has no faces")
	}

	c := &Cuboid{Points: pts}
	for i, f := range obj.Faces {
		if len(f) != 4 {
			return nil, malformed(obj, "face %d has %d vertices, want 4", i, len(f))
		}
		var face [4]int
		for j, idx := range f {
			if idx < 0 || idx >= len(pts) {
				return nil, malformed(obj, "face %d references point %d of %d", i, idx, len(pts))
			}
			face[j] = idx
		}
		c.Faces = append(c.Faces, face)
	}
	return c, nil
}

func (c *Cuboid) Type() string { return TypeCuboid }

func (c *Cuboid) Bounds() image.Rectangle { return boundsOf(c.Points) }

func (c *Cuboid) Scale(sx, sy float64) Geometry {
	return &Cuboid{Points: scalePoints(c.Points, sx, sy), Faces: c.Faces}
}

func (c *Cuboid) Draw(dst *image.RGBA, col color.RGBA, _ int) {
	for _, f := range c.Faces {
		quad := []image.Point{c.Points[f[0]], c.Points[f[1]], c.Points[f[2]], c.Points[f[3]]}
		fillPolygon(dst, quad, nil, col)
	}
}

// Edge 关键点之间的连线
type Edge struct {
	Src, Dst string
}

// Graph 关键点图，边的定义来自类别
type Graph struct {
	Nodes map[string]image.Point
	Edges []Edge
}

type graphConfig struct {
	Edges []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"edges"`
}

func decodeGraph(obj model.ObjectJSON, geometryConfig json.RawMessage) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]image.Point, len(obj.Nodes))}
	for id, n := range obj.Nodes {
		if n.Disabled {
			continue
		}
		if len(n.Loc) != 2 {
			return nil, malformed(obj, "node %q has %d coordinates", id, len(n.Loc))
		}
		g.Nodes[id] = image.Point{X: round(n.Loc[0]), Y: round(n.Loc[1])}
	}
	if len(g.Nodes) == 0 {
		return nil, malformed(obj, "graph has no enabled nodes")
	}

	if len(geometryConfig) > 0 {
		var cfg graphConfig
		if err := json.Unmarshal(geometryConfig, &cfg); err != nil {
			return nil, malformed(obj, "decode graph template: %v", err)
		}
		for _, e := range cfg.Edges {
			g.Edges = append(g.Edges, Edge{Src: e.Src, Dst: e.Dst})
		}
	}
	return g, nil
}

func (g *Graph) Type() string { return TypeGraph }

func (g *Graph) Bounds() image.Rectangle {
	pts := make([]image.Point, 0, len(g.Nodes))
	for _, p := range g.Nodes {
		pts = append(pts, p)
	}
	return boundsOf(pts)
}

func (g *Graph) Scale(sx, sy float64) Geometry {
	out := &Graph{Nodes: make(map[string]image.Point, len(g.Nodes)), Edges: g.Edges}
	for id, p := range g.Nodes {
		out.Nodes[id] = scalePoint(p, sx, sy)
	}
	return out
}

func (g *Graph) Draw(dst *image.RGBA, c color.RGBA, thickness int) {
	for _, e := range g.Edges {
		a, okA := g.Nodes[e.Src]
		b, okB := g.Nodes[e.Dst]
		if okA && okB {
			strokeSegment(dst, a, b, thickness, c)
		}
	}

	for _, p := range g.Nodes {
		fillDisc(dst, p.X, p.Y, max(thickness, 2), c)
	}
}
