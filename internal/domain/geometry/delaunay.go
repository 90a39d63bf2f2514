package geometry

import (
	"math"
	"sort"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// volumeEps is the relative volume below which a tetrahedron is flat.
const volumeEps = 1e-12

// Triangulation is a 3-D Delaunay tessellation of a point set. Indices refer to
// the input slice.
type Triangulation struct {
	Tetrahedra [][4]int
}

// Edges returns the unique edges of all tetrahedra, sorted.
func (t *Triangulation) Edges() []Pair {
	seen := make(map[Pair]struct{})
	for _, tet := range t.Tetrahedra {
		for a := 0; a < 4; a++ {
			for b := a + 1; b < 4; b++ {
				i, j := tet[a], tet[b]
				if i > j {
					i, j = j, i
				}
				seen[Pair{I: i, J: j}] = struct{}{}
			}
		}
	}
	out := make([]Pair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

// tetra is a cell of the triangulation. A hull cell has the vertex at
// infinity in v[3] and its finite face in v[0:3].
type tetra struct {
	v      [4]int
	center Point
	r2     float64
}

type face [3]int

func makeFace(a, b, c int) face {
	f := face{a, b, c}
	sort.Ints(f[:])
	return f
}

// Delaunay3D triangulates points with the Bowyer-Watson algorithm. The
// exterior of the convex hull is covered by cells sharing a single vertex at
// infinity, so every hull tetrahedron is kept. At least four non-coplanar
// points are required.
func Delaunay3D(points []Point) (*Triangulation, error) {
	n := len(points)
	if n < 4 {
		return nil, errors.New(errors.ErrCodeDegenerateTriangulation, "at least four points are required").
			WithDetailf("points=%d", n)
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = Point{math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z)}
		hi = Point{math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z)}
	}
	extent := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if extent == 0 {
		extent = 1
	}
	flat := 6 * volumeEps * extent * extent * extent

	seed, ok := initialTetrahedron(points, flat)
	if !ok {
		return nil, errors.New(errors.ErrCodeDegenerateTriangulation, "points are coplanar").
			WithDetailf("points=%d", n)
	}

	inf := n
	d := &delaunay{points: points, inf: inf, flat: flat}
	d.tets = append(d.tets, newTetra(points, seed))
	for k := 0; k < 4; k++ {
		var f [3]int
		m := 0
		for j := 0; j < 4; j++ {
			if j != k {
				f[m] = seed[j]
				m++
			}
		}
		d.tets = append(d.tets, tetra{v: [4]int{f[0], f[1], f[2], inf}})
	}
	d.seen = make(map[Point]struct{}, n)
	for _, i := range seed {
		d.sum = d.sum.Add(points[i])
		d.seen[points[i]] = struct{}{}
	}
	d.count = 4

	inSeed := func(i int) bool {
		return i == seed[0] || i == seed[1] || i == seed[2] || i == seed[3]
	}
	for pi := 0; pi < n; pi++ {
		if !inSeed(pi) {
			d.insert(pi)
		}
	}

	out := &Triangulation{}
	for _, t := range d.tets {
		if t.v[3] == inf {
			continue
		}
		if math.Abs(signedVolume(points, t.v)) <= volumeEps*extent*extent*extent {
			continue
		}
		v := t.v
		sort.Ints(v[:])
		out.Tetrahedra = append(out.Tetrahedra, v)
	}
	if len(out.Tetrahedra) == 0 {
		return nil, errors.New(errors.ErrCodeDegenerateTriangulation, "points are coplanar").
			WithDetailf("points=%d", n)
	}
	sort.Slice(out.Tetrahedra, func(a, b int) bool {
		ta, tb := out.Tetrahedra[a], out.Tetrahedra[b]
		for k := 0; k < 4; k++ {
			if ta[k] != tb[k] {
				return ta[k] < tb[k]
			}
		}
		return false
	})
	return out, nil
}

type delaunay struct {
	points []Point
	inf    int
	flat   float64
	tets   []tetra

	// sum and count give the centroid of the inserted points, which lies
	// strictly inside the current hull.
	sum   Point
	count int
	seen  map[Point]struct{}
}

func (d *delaunay) insert(pi int) {
	p := d.points[pi]
	if _, dup := d.seen[p]; dup {
		return
	}
	inside := d.sum.Scale(1 / float64(d.count))

	faces := make(map[face]int)
	kept := d.tets[:0:0]
	for _, t := range d.tets {
		if d.conflicts(t, p, inside) {
			v := t.v
			faces[makeFace(v[0], v[1], v[2])]++
			faces[makeFace(v[0], v[1], v[3])]++
			faces[makeFace(v[0], v[2], v[3])]++
			faces[makeFace(v[1], v[2], v[3])]++
			continue
		}
		kept = append(kept, t)
	}
	if len(faces) == 0 {
		return
	}

	for f, count := range faces {
		if count != 1 {
			continue
		}
		if f[2] == d.inf {
			kept = append(kept, tetra{v: [4]int{f[0], f[1], pi, d.inf}})
			continue
		}
		kept = append(kept, newTetra(d.points, [4]int{f[0], f[1], f[2], pi}))
	}
	d.tets = kept
	d.sum = d.sum.Add(p)
	d.count++
	d.seen[p] = struct{}{}
}

// conflicts reports whether p lies strictly inside the circumsphere of t. For
// a hull cell that is the open half-space beyond its face, plus the open
// circumcircle of the face when p is coplanar with it.
func (d *delaunay) conflicts(t tetra, p, inside Point) bool {
	if t.v[3] != d.inf {
		return p.Sub(t.center).Norm2() < t.r2
	}
	a, b, c := d.points[t.v[0]], d.points[t.v[1]], d.points[t.v[2]]
	op := orient(a, b, c, p)
	if math.Abs(op) > d.flat {
		return (op > 0) != (orient(a, b, c, inside) > 0)
	}
	center, r2, ok := circumcircle(a, b, c)
	return ok && p.Sub(center).Norm2() < r2
}

// initialTetrahedron picks four points spanning the largest volume it can find
// greedily. It fails when every candidate is flat.
func initialTetrahedron(points []Point, flat float64) ([4]int, bool) {
	var seed [4]int
	p0 := points[0]

	best := 0.0
	for i, p := range points {
		if d := p.Sub(p0).Norm2(); d > best {
			best, seed[1] = d, i
		}
	}
	if best == 0 {
		return seed, false
	}
	p1 := points[seed[1]]

	best = 0
	for i, p := range points {
		if a := p.Sub(p0).Cross(p1.Sub(p0)).Norm2(); a > best {
			best, seed[2] = a, i
		}
	}
	if best == 0 {
		return seed, false
	}
	p2 := points[seed[2]]

	best = 0
	for i, p := range points {
		if v := math.Abs(orient(p0, p1, p2, p)); v > best {
			best, seed[3] = v, i
		}
	}
	return seed, best > flat
}

// orient is six times the signed volume of abcd.
func orient(a, b, c, d Point) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}

func circumcircle(a, b, c Point) (Point, float64, bool) {
	u := b.Sub(a)
	w := c.Sub(a)
	n := u.Cross(w)
	den := 2 * n.Norm2()
	if den == 0 {
		return Point{}, 0, false
	}
	off := w.Scale(u.Norm2()).Sub(u.Scale(w.Norm2())).Cross(n).Scale(1 / den)
	return a.Add(off), off.Norm2(), true
}

func signedVolume(verts []Point, v [4]int) float64 {
	a := verts[v[0]]
	u := verts[v[1]].Sub(a)
	w := verts[v[2]].Sub(a)
	x := verts[v[3]].Sub(a)
	return u.Dot(w.Cross(x)) / 6
}

// newTetra computes the circumsphere of v. A flat tetrahedron gets an infinite
// radius so that the next insertion always replaces it.
func newTetra(verts []Point, v [4]int) tetra {
	a := verts[v[0]]
	u := verts[v[1]].Sub(a)
	w := verts[v[2]].Sub(a)
	x := verts[v[3]].Sub(a)

	denom := 2 * u.Dot(w.Cross(x))
	if denom == 0 {
		return tetra{v: v, center: a, r2: math.Inf(1)}
	}
	num := w.Cross(x).Scale(u.Norm2()).
		Add(x.Cross(u).Scale(w.Norm2())).
		Add(u.Cross(w).Scale(x.Norm2()))
	off := num.Scale(1 / denom)
	return tetra{v: v, center: a.Add(off), r2: off.Norm2()}
}
