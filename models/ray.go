package models

// Ray is a segment of empty space between two sampled endpoints.
type Ray struct {
	Start Vec3
	End   Vec3
}

func NewRay(start, end Vec3) Ray {
	return Ray{Start: start, End: end}
}

func (r Ray) Direction() Vec3 {
	return r.End.Sub(r.Start).Normalized()
}

func (r Ray) Length() float64 {
	return r.End.Sub(r.Start).Length()
}

func (r Ray) Bounds() Bounds {
	return BoundsOf(r.Start, r.End)
}
