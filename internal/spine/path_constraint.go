package spine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	pathNone   = -1
	pathBefore = -2
	pathAfter  = -3
	epsilon    = 0.00001
)

type PathConstraint struct {
	Data         *PathConstraintData
	Bones        []*Bone
	Target       *Slot
	Position     float32
	Spacing      float32
	RotateMix    float32
	TranslateMix float32
	active       bool
	// 复用的临时数据
	spaces    []float32
	positions []float32
	world     []float32
	curves    []float32
	lengths   []float32
	segments  [10]float32
	vertices  []mgl32.Vec2
}

func NewPathConstraint(data *PathConstraintData, skeleton *Skeleton) *PathConstraint {
	res := &PathConstraint{Data: data, Target: skeleton.Slots[data.Target.Index]}
	for _, item := range data.Bones {
		res.Bones = append(res.Bones, skeleton.Bones[item.Index])
	}
	res.SetToSetupPose()
	return res
}

func (c *PathConstraint) SetToSetupPose() {
	c.Position = c.Data.Position
	c.Spacing = c.Data.Spacing
	c.RotateMix = c.Data.RotateMix
	c.TranslateMix = c.Data.TranslateMix
}

func (c *PathConstraint) IsActive() bool {
	return c.active
}

func resize(items []float32, size int) []float32 {
	if cap(items) < size {
		return make([]float32, size)
	}
	items = items[:size]
	clear(items)
	return items
}

// Update 骨骼沿目标槽位上的路径附件排布
func (c *PathConstraint) Update() {
	path, ok := c.Target.Attachment().(*PathAttachment)
	if !ok {
		return
	}
	rotateMix, translateMix := c.RotateMix, c.TranslateMix
	translate, rotate := translateMix > 0, rotateMix > 0
	if !translate && !rotate {
		return
	}
	data := c.Data
	percentSpacing := data.SpacingMode == SpacingPercent
	tangents := data.RotateMode == RotateTangent
	scale := data.RotateMode == RotateChainScale
	boneCount := len(c.Bones)
	spacesCount := boneCount + 1
	if tangents {
		spacesCount = boneCount
	}
	c.spaces = resize(c.spaces, spacesCount)
	spaces := c.spaces
	if scale {
		c.lengths = resize(c.lengths, boneCount)
	}
	lengths := c.lengths
	spacing := c.Spacing
	if scale || !percentSpacing {
		lengthSpacing := data.SpacingMode == SpacingLength
		for i, n := 0, spacesCount-1; i < n; {
			bone := c.Bones[i]
			setupLength := bone.Data.Length
			if setupLength < epsilon {
				if scale {
					lengths[i] = 0
				}
				i++
				spaces[i] = 0
				continue
			}
			x, y := setupLength*bone.A(), setupLength*bone.C()
			length := Sqrt(x*x + y*y)
			if scale {
				lengths[i] = length
			}
			i++
			if percentSpacing {
				spaces[i] = spacing
			} else if lengthSpacing {
				spaces[i] = (setupLength + spacing) * length / setupLength
			} else {
				spaces[i] = spacing * length / setupLength
			}
		}
	} else {
		for i := 1; i < spacesCount; i++ {
			spaces[i] = spacing
		}
	}

	positions := c.computeWorldPositions(path, spacesCount, tangents, data.PositionMode == PositionPercent, percentSpacing)
	boneX, boneY := positions[0], positions[1]
	offsetRotation := data.OffsetRotation
	tip := false
	if offsetRotation == 0 {
		tip = data.RotateMode == RotateChain
	} else {
		p := c.Target.Bone
		if p.A()*p.D()-p.B()*p.C() > 0 {
			offsetRotation *= DegRad
		} else {
			offsetRotation *= -DegRad
		}
	}
	for i, p := 0, 3; i < boneCount; i, p = i+1, p+3 {
		bone := c.Bones[i]
		bone.WorldPos[0] += (boneX - bone.WorldPos[0]) * translateMix
		bone.WorldPos[1] += (boneY - bone.WorldPos[1]) * translateMix
		x, y := positions[p], positions[p+1]
		dx, dy := x-boneX, y-boneY
		if scale {
			if length := lengths[i]; length != 0 {
				s := (Sqrt(dx*dx+dy*dy)/length-1)*rotateMix + 1
				bone.Mat2[0] *= s
				bone.Mat2[1] *= s
			}
		}
		boneX, boneY = x, y
		if rotate {
			a, b, cc, d := bone.A(), bone.B(), bone.C(), bone.D()
			var r float32
			if tangents {
				r = positions[p-1]
			} else if spaces[i+1] == 0 {
				r = positions[p+2]
			} else {
				r = Atan2(dy, dx)
			}
			r -= Atan2(cc, a)
			if tip {
				cos, sin := Cos(r), Sin(r)
				length := bone.Data.Length
				boneX += (length*(cos*a-sin*cc) - dx) * rotateMix
				boneY += (length*(sin*a+cos*cc) - dy) * rotateMix
			} else {
				r += offsetRotation
			}
			r = WrapRadians(r) * rotateMix
			cos, sin := Cos(r), Sin(r)
			bone.Mat2 = NewMat2(cos*a-sin*cc, cos*b-sin*d, sin*a+cos*cc, sin*b+cos*d)
		}
		bone.AppliedValid = false
	}
}

// flatWorld 路径顶点的世界坐标，按 x y 展开
func (c *PathConstraint) flatWorld(path *PathAttachment) []float32 {
	c.vertices = path.ComputeWorldVertices(c.Target, c.vertices)
	res := make([]float32, 0, len(c.vertices)*2)
	for _, item := range c.vertices {
		res = append(res, item.X(), item.Y())
	}
	return res
}

func (c *PathConstraint) computeWorldPositions(path *PathAttachment, spacesCount int, tangents, percentPosition, percentSpacing bool) []float32 {
	position := c.Position
	spaces := c.spaces
	c.positions = resize(c.positions, spacesCount*3+2)
	out := c.positions
	closed := path.Closed
	flat := c.flatWorld(path)
	verticesLength := len(flat)
	curveCount := verticesLength / 6
	prevCurve := pathNone

	if !path.ConstantSpeed {
		lengths := path.Lengths
		if closed {
			curveCount--
		} else {
			curveCount -= 2
		}
		pathLength := lengths[curveCount]
		if percentPosition {
			position *= pathLength
		}
		if percentSpacing {
			for i := 1; i < spacesCount; i++ {
				spaces[i] *= pathLength
			}
		}
		c.world = resize(c.world, 8)
		world := c.world
		curve := 0
		for i, o := 0, 0; i < spacesCount; i, o = i+1, o+3 {
			space := spaces[i]
			position += space
			p := position
			if closed {
				p = float32(math.Mod(float64(p), float64(pathLength)))
				if p < 0 {
					p += pathLength
				}
				curve = 0
			} else if p < 0 {
				if prevCurve != pathBefore {
					prevCurve = pathBefore
					copy(world, flat[2:6])
				}
				addBeforePosition(p, world, 0, out, o)
				continue
			} else if p > pathLength {
				if prevCurve != pathAfter {
					prevCurve = pathAfter
					copy(world, flat[verticesLength-6:verticesLength-2])
				}
				addAfterPosition(p-pathLength, world, 0, out, o)
				continue
			}
			for ; ; curve++ { // 找到所在的曲线
				length := lengths[curve]
				if p > length {
					continue
				}
				if curve == 0 {
					p /= length
				} else {
					prev := lengths[curve-1]
					p = (p - prev) / (length - prev)
				}
				break
			}
			if curve != prevCurve {
				prevCurve = curve
				if closed && curve == curveCount {
					copy(world, flat[verticesLength-4:])
					copy(world[4:], flat[:4])
				} else {
					copy(world, flat[curve*6+2:curve*6+10])
				}
			}
			addCurvePosition(p, world[0], world[1], world[2], world[3], world[4], world[5], world[6], world[7], out, o,
				tangents || (i > 0 && space == 0))
		}
		return out
	}

	// 匀速时需要自己计算曲线长度
	var world []float32
	if closed {
		verticesLength += 2
		c.world = resize(c.world, verticesLength)
		world = c.world
		copy(world, flat[2:])
		copy(world[verticesLength-4:], flat[:2])
		world[verticesLength-2] = world[0]
		world[verticesLength-1] = world[1]
	} else {
		curveCount--
		verticesLength -= 4
		c.world = resize(c.world, verticesLength)
		world = c.world
		copy(world, flat[2:2+verticesLength])
	}

	c.curves = resize(c.curves, curveCount)
	curves := c.curves
	pathLength := float32(0)
	x1, y1 := world[0], world[1]
	var cx1, cy1, cx2, cy2, x2, y2 float32
	for i, w := 0, 2; i < curveCount; i, w = i+1, w+6 {
		cx1, cy1 = world[w], world[w+1]
		cx2, cy2 = world[w+2], world[w+3]
		x2, y2 = world[w+4], world[w+5]
		tmpx := (x1 - cx1*2 + cx2) * 0.1875
		tmpy := (y1 - cy1*2 + cy2) * 0.1875
		dddfx := ((cx1-cx2)*3 - x1 + x2) * 0.09375
		dddfy := ((cy1-cy2)*3 - y1 + y2) * 0.09375
		ddfx := tmpx*2 + dddfx
		ddfy := tmpy*2 + dddfy
		dfx := (cx1-x1)*0.75 + tmpx + dddfx*0.16666667
		dfy := (cy1-y1)*0.75 + tmpy + dddfy*0.16666667
		pathLength += Sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx
		dfy += ddfy
		ddfx += dddfx
		ddfy += dddfy
		pathLength += Sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx
		dfy += ddfy
		pathLength += Sqrt(dfx*dfx + dfy*dfy)
		dfx += ddfx + dddfx
		dfy += ddfy + dddfy
		pathLength += Sqrt(dfx*dfx + dfy*dfy)
		curves[i] = pathLength
		x1, y1 = x2, y2
	}
	if percentPosition {
		position *= pathLength
	} else {
		position *= pathLength / path.Lengths[curveCount-1]
	}
	if percentSpacing {
		for i := 1; i < spacesCount; i++ {
			spaces[i] *= pathLength
		}
	}

	segments := c.segments[:]
	curveLength := float32(0)
	curve, segment := 0, 0
	for i, o := 0, 0; i < spacesCount; i, o = i+1, o+3 {
		space := spaces[i]
		position += space
		p := position
		if closed {
			p = float32(math.Mod(float64(p), float64(pathLength)))
			if p < 0 {
				p += pathLength
			}
			curve = 0
		} else if p < 0 {
			addBeforePosition(p, world, 0, out, o)
			continue
		} else if p > pathLength {
			addAfterPosition(p-pathLength, world, verticesLength-4, out, o)
			continue
		}
		for ; ; curve++ {
			length := curves[curve]
			if p > length {
				continue
			}
			if curve == 0 {
				p /= length
			} else {
				prev := curves[curve-1]
				p = (p - prev) / (length - prev)
			}
			break
		}
		if curve != prevCurve { // 曲线分成 10 段近似长度
			prevCurve = curve
			ii := curve * 6
			x1, y1 = world[ii], world[ii+1]
			cx1, cy1 = world[ii+2], world[ii+3]
			cx2, cy2 = world[ii+4], world[ii+5]
			x2, y2 = world[ii+6], world[ii+7]
			tmpx := (x1 - cx1*2 + cx2) * 0.03
			tmpy := (y1 - cy1*2 + cy2) * 0.03
			dddfx := ((cx1-cx2)*3 - x1 + x2) * 0.006
			dddfy := ((cy1-cy2)*3 - y1 + y2) * 0.006
			ddfx := tmpx*2 + dddfx
			ddfy := tmpy*2 + dddfy
			dfx := (cx1-x1)*0.3 + tmpx + dddfx*0.16666667
			dfy := (cy1-y1)*0.3 + tmpy + dddfy*0.16666667
			curveLength = Sqrt(dfx*dfx + dfy*dfy)
			segments[0] = curveLength
			for ii = 1; ii < 8; ii++ {
				dfx += ddfx
				dfy += ddfy
				ddfx += dddfx
				ddfy += dddfy
				curveLength += Sqrt(dfx*dfx + dfy*dfy)
				segments[ii] = curveLength
			}
			dfx += ddfx
			dfy += ddfy
			curveLength += Sqrt(dfx*dfx + dfy*dfy)
			segments[8] = curveLength
			dfx += ddfx + dddfx
			dfy += ddfy + dddfy
			curveLength += Sqrt(dfx*dfx + dfy*dfy)
			segments[9] = curveLength
			segment = 0
		}
		p *= curveLength
		for ; ; segment++ {
			length := segments[segment]
			if p > length {
				continue
			}
			if segment == 0 {
				p /= length
			} else {
				prev := segments[segment-1]
				p = float32(segment) + (p-prev)/(length-prev)
			}
			break
		}
		addCurvePosition(p*0.1, x1, y1, cx1, cy1, cx2, cy2, x2, y2, out, o, tangents || (i > 0 && space == 0))
	}
	return out
}

func addBeforePosition(p float32, temp []float32, i int, out []float32, o int) {
	x1, y1 := temp[i], temp[i+1]
	r := Atan2(temp[i+3]-y1, temp[i+2]-x1)
	out[o] = x1 + p*Cos(r)
	out[o+1] = y1 + p*Sin(r)
	out[o+2] = r
}

func addAfterPosition(p float32, temp []float32, i int, out []float32, o int) {
	x1, y1 := temp[i+2], temp[i+3]
	r := Atan2(y1-temp[i+1], x1-temp[i])
	out[o] = x1 + p*Cos(r)
	out[o+1] = y1 + p*Sin(r)
	out[o+2] = r
}

func addCurvePosition(p, x1, y1, cx1, cy1, cx2, cy2, x2, y2 float32, out []float32, o int, tangents bool) {
	if p < epsilon || math.IsNaN(float64(p)) {
		out[o] = x1
		out[o+1] = y1
		out[o+2] = Atan2(cy1-y1, cx1-x1)
		return
	}
	tt := p * p
	ttt := tt * p
	u := 1 - p
	uu := u * u
	uuu := uu * u
	ut := u * p
	ut3 := ut * 3
	uut3 := u * ut3
	utt3 := ut3 * p
	x := x1*uuu + cx1*uut3 + cx2*utt3 + x2*ttt
	y := y1*uuu + cy1*uut3 + cy2*utt3 + y2*ttt
	out[o] = x
	out[o+1] = y
	if tangents {
		if p < 0.001 {
			out[o+2] = Atan2(cy1-y1, cx1-x1)
		} else {
			out[o+2] = Atan2(y-(y1*uu+cy1*ut*2+cy2*tt), x-(x1*uu+cx1*ut*2+cx2*tt))
		}
	}
}
