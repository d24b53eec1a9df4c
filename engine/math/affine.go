package math

func NewAffine2DScale(sx, sy float32) Affine2D {
	return Affine2D{M11: sx, M22: sy}
}

func NewAffine2DTranslation(tx, ty float32) Affine2D {
	return Affine2D{M11: 1, M22: 1, M31: tx, M32: ty}
}

// NewAffine2DRotation rotates clockwise in a y-down image space.
func NewAffine2DRotation(radians float32) Affine2D {
	c := kcos(radians)
	s := ksin(radians)
	return Affine2D{M11: c, M12: s, M21: -s, M22: c}
}

// Mul returns a * b. Applied to a point, a happens first.
func (a Affine2D) Mul(b Affine2D) Affine2D {
	return Affine2D{
		M11: a.M11*b.M11 + a.M12*b.M21,
		M12: a.M11*b.M12 + a.M12*b.M22,
		M21: a.M21*b.M11 + a.M22*b.M21,
		M22: a.M21*b.M12 + a.M22*b.M22,
		M31: a.M31*b.M11 + a.M32*b.M21 + b.M31,
		M32: a.M31*b.M12 + a.M32*b.M22 + b.M32,
	}
}

func (a Affine2D) Apply(p Vec2) Vec2 {
	return Vec2{
		X: p.X*a.M11 + p.Y*a.M21 + a.M31,
		Y: p.X*a.M12 + p.Y*a.M22 + a.M32,
	}
}

// TransformRect returns the axis aligned bounds of r after the transform.
func (a Affine2D) TransformRect(r Rect) Rect {
	corners := [4]Vec2{
		a.Apply(Vec2{r.Left, r.Top}),
		a.Apply(Vec2{r.Right, r.Top}),
		a.Apply(Vec2{r.Left, r.Bottom}),
		a.Apply(Vec2{r.Right, r.Bottom}),
	}
	out := Rect{Left: corners[0].X, Top: corners[0].Y, Right: corners[0].X, Bottom: corners[0].Y}
	for _, c := range corners[1:] {
		out.Left = min(out.Left, c.X)
		out.Top = min(out.Top, c.Y)
		out.Right = max(out.Right, c.X)
		out.Bottom = max(out.Bottom, c.Y)
	}
	return out
}
