package renderer

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

type OpType uint8

const (
	OpSource OpType = iota
	OpBitmap
	OpTransform
	OpBlur
	OpNormalMapLighting
	OpLuminanceToAlpha
	OpPointDiffuse
	OpDistantDiffuse
	OpMask
	OpArithmeticComposite
	OpGenerateNormalMap
	OpGrayscale
)

var opNames = [...]string{
	OpSource:              "source",
	OpBitmap:              "bitmap",
	OpTransform:           "transform",
	OpBlur:                "blur",
	OpNormalMapLighting:   "normal_map_lighting",
	OpLuminanceToAlpha:    "luminance_to_alpha",
	OpPointDiffuse:        "point_diffuse",
	OpDistantDiffuse:      "distant_diffuse",
	OpMask:                "mask",
	OpArithmeticComposite: "arithmetic_composite",
	OpGenerateNormalMap:   "generate_normal_map",
	OpGrayscale:           "grayscale",
}

func (o OpType) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Node is one recorded graph operation. Params holds the constant block the
// operation was built with, by value.
type Node struct {
	ID     uint64
	Op     OpType
	Inputs []Image
	Params interface{}
	bounds math.Rect
	needs  math.Rect
}

func (n *Node) Bounds() math.Rect {
	return n.bounds
}

// InputRect is the region of the first input read to produce Bounds. It is
// wider than the input bounds for ops that sample neighbours.
func (n *Node) InputRect() math.Rect {
	return n.needs
}

// Input returns the i-th input as a recorded node, or nil.
func (n *Node) Input(i int) *Node {
	if i < 0 || i >= len(n.Inputs) {
		return nil
	}
	in, _ := n.Inputs[i].(*Node)
	return in
}

// Find returns the first node of the given type in a pre-order walk.
func (n *Node) Find(op OpType) *Node {
	if n == nil {
		return nil
	}
	if n.Op == op {
		return n
	}
	for i := range n.Inputs {
		if found := n.Input(i).Find(op); found != nil {
			return found
		}
	}
	return nil
}

// String renders the graph rooted at n, one node per line.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	if n == nil {
		return
	}
	b := n.bounds
	fmt.Fprintf(sb, "%s%s#%d [%.1f %.1f %.1f %.1f]\n", strings.Repeat("  ", depth), n.Op, n.ID, b.Left, b.Top, b.Right, b.Bottom)
	for i := range n.Inputs {
		n.Input(i).write(sb, depth+1)
	}
}

// Recorder is an in-memory GraphBuilder. It performs no pixel work, it only
// records the graph and propagates output bounds. Safe for concurrent use.
type Recorder struct {
	nextID atomic.Uint64

	mu     sync.Mutex
	counts map[OpType]int
}

func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[OpType]int)}
}

// Count returns how many nodes of type op were recorded since the last Reset.
func (r *Recorder) Count(op OpType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[op]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[OpType]int)
}

func (r *Recorder) record(op OpType, bounds math.Rect, params interface{}, inputs ...Image) *Node {
	r.mu.Lock()
	r.counts[op]++
	r.mu.Unlock()
	n := &Node{
		ID:     r.nextID.Add(1),
		Op:     op,
		Inputs: inputs,
		Params: params,
		bounds: bounds,
	}
	if len(inputs) > 0 {
		n.needs = boundsOf(inputs[0])
	}
	return n
}

func boundsOf(img Image) math.Rect {
	if img == nil {
		return math.Rect{}
	}
	return img.Bounds()
}

func (r *Recorder) Source(bounds math.Rect) Image {
	return r.record(OpSource, bounds, nil)
}

func (r *Recorder) Bitmap(texture *metadata.Texture) Image {
	b := texture.Bounds()
	bounds := math.Rect{
		Left:   float32(b.Min.X),
		Top:    float32(b.Min.Y),
		Right:  float32(b.Max.X),
		Bottom: float32(b.Max.Y),
	}
	return r.record(OpBitmap, bounds, texture)
}

// TransformParams is recorded on transform nodes.
type TransformParams struct {
	Matrix        math.Affine2D
	Interpolation Interpolation
}

func (r *Recorder) Transform(src Image, m math.Affine2D, interpolation Interpolation) Image {
	params := TransformParams{Matrix: m, Interpolation: interpolation}
	return r.record(OpTransform, m.TransformRect(boundsOf(src)), params, src)
}

func (r *Recorder) Blur(src Image, standardDeviation float32) Image {
	return r.record(OpBlur, boundsOf(src), standardDeviation, src)
}

func (r *Recorder) NormalMapLighting(input, normal Image, constants metadata.NormalMapConstants) Image {
	return r.record(OpNormalMapLighting, boundsOf(input), constants, input, normal)
}

func (r *Recorder) LuminanceToAlpha(src Image) Image {
	return r.record(OpLuminanceToAlpha, boundsOf(src), nil, src)
}

func (r *Recorder) PointDiffuse(height Image, params metadata.PointDiffuseParams) Image {
	return r.record(OpPointDiffuse, boundsOf(height), params, height)
}

func (r *Recorder) DistantDiffuse(height Image, params metadata.DistantDiffuseParams) Image {
	return r.record(OpDistantDiffuse, boundsOf(height), params, height)
}

func (r *Recorder) Mask(dst, mask Image) Image {
	return r.record(OpMask, intersect(boundsOf(dst), boundsOf(mask)), nil, dst, mask)
}

func (r *Recorder) ArithmeticComposite(a, b Image, coefficients metadata.CompositeCoefficients) Image {
	return r.record(OpArithmeticComposite, union(boundsOf(a), boundsOf(b)), coefficients, a, b)
}

// GenerateNormalMap keeps the source bounds but reads InputMargin pixels
// past them on every side.
func (r *Recorder) GenerateNormalMap(src Image, constants metadata.GeneratorConstants) Image {
	bounds := boundsOf(src)
	n := r.record(OpGenerateNormalMap, bounds, constants, src)
	if !bounds.Empty() {
		n.needs = bounds.Inflate(float32(constants.InputMargin()))
	}
	return n
}

func (r *Recorder) Grayscale(src Image) Image {
	return r.record(OpGrayscale, boundsOf(src), nil, src)
}

func intersect(a, b math.Rect) math.Rect {
	out := math.Rect{
		Left:   max(a.Left, b.Left),
		Top:    max(a.Top, b.Top),
		Right:  min(a.Right, b.Right),
		Bottom: min(a.Bottom, b.Bottom),
	}
	if out.Empty() {
		return math.Rect{}
	}
	return out
}

func union(a, b math.Rect) math.Rect {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return math.Rect{
		Left:   min(a.Left, b.Left),
		Top:    min(a.Top, b.Top),
		Right:  max(a.Right, b.Right),
		Bottom: max(a.Bottom, b.Bottom),
	}
}
