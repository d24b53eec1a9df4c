package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix, row-major, used with row vectors (v * M).
 * Translation lives in elements 12, 13 and 14.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief A 3x2 affine matrix for 2D placement, row-vector convention:
 * | M11 M12 |
 * | M21 M22 |
 * | M31 M32 |  <- translation
 */
type Affine2D struct {
	M11, M12 float32
	M21, M22 float32
	M31, M32 float32
}

// Rect is an axis aligned rectangle in image space. Right/Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom float32
}

func (r Rect) Width() float32 {
	return r.Right - r.Left
}

func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Inflate grows r by d on every side.
func (r Rect) Inflate(d float32) Rect {
	return Rect{Left: r.Left - d, Top: r.Top - d, Right: r.Right + d, Bottom: r.Bottom + d}
}

// Empty reports a zero or negative area rectangle.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}
