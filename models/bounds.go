package models

// Bounds is an axis-aligned box.
type Bounds struct {
	Min Vec3
	Max Vec3
}

func NewBounds(min, max Vec3) Bounds {
	return Bounds{Min: min, Max: max}
}

// BoundsOf returns the smallest bounds enclosing the given points.
func BoundsOf(points ...Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Encapsulate(p)
	}
	return b
}

func (b Bounds) Midpoint() Vec3 {
	return Vec3{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Encapsulate grows the bounds to include p.
func (b Bounds) Encapsulate(p Vec3) Bounds {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.Z < b.Min.Z {
		b.Min.Z = p.Z
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	if p.Z > b.Max.Z {
		b.Max.Z = p.Z
	}
	return b
}

// Expand pads the bounds by epsilon on every side.
func (b Bounds) Expand(epsilon float64) Bounds {
	e := Vec3{epsilon, epsilon, epsilon}
	return Bounds{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}
