package spine

type IkConstraint struct {
	Data          *IkConstraintData
	Bones         []*Bone // 1 或 2 根
	Target        *Bone
	BendDirection int
	Compress      bool
	Stretch       bool
	Mix           float32
	Softness      float32
	active        bool
}

func NewIkConstraint(data *IkConstraintData, skeleton *Skeleton) *IkConstraint {
	res := &IkConstraint{Data: data, Target: skeleton.Bones[data.Target.Index]}
	for _, item := range data.Bones {
		res.Bones = append(res.Bones, skeleton.Bones[item.Index])
	}
	res.SetToSetupPose()
	return res
}

func (c *IkConstraint) SetToSetupPose() {
	c.Mix = c.Data.Mix
	c.Softness = c.Data.Softness
	c.BendDirection = c.Data.BendDirection
	c.Compress = c.Data.Compress
	c.Stretch = c.Data.Stretch
}

func (c *IkConstraint) IsActive() bool {
	return c.active
}

func (c *IkConstraint) Update() {
	c.Apply()
}

func (c *IkConstraint) Apply() {
	target := c.Target.WorldPos
	switch len(c.Bones) {
	case 1:
		ApplyIk1(c.Bones[0], target.X(), target.Y(), c.Compress, c.Stretch, c.Data.Uniform, c.Mix)
	case 2:
		ApplyIk2(c.Bones[0], c.Bones[1], target.X(), target.Y(), c.BendDirection, c.Stretch, c.Softness, c.Mix)
	}
}

// parentMat 根骨骼没有父骨骼时按单位矩阵处理
func parentMat(bone *Bone) (float32, float32, float32, float32, float32, float32) {
	if bone.Parent == nil {
		return 1, 0, 0, 1, bone.Skeleton.X, bone.Skeleton.Y
	}
	p := bone.Parent
	return p.A(), p.B(), p.C(), p.D(), p.WorldPos.X(), p.WorldPos.Y()
}

// ApplyIk1 单骨骼朝向目标旋转，可选压缩/拉伸
func ApplyIk1(bone *Bone, targetX, targetY float32, compress, stretch, uniform bool, alpha float32) {
	if !bone.AppliedValid {
		bone.UpdateAppliedTransform()
	}
	pa, pb, pc, pd, pwx, pwy := parentMat(bone)
	rotationIK := -bone.AShearX - bone.ARotation
	var tx, ty float32
	switch bone.Data.TransformMode {
	case TransformOnlyTranslation:
		tx = targetX - bone.WorldPos.X()
		ty = targetY - bone.WorldPos.Y()
	case TransformNoRotationOrReflection:
		skeleton := bone.Skeleton
		s := Abs(pa*pd-pb*pc) / (pa*pa + pc*pc)
		sa := pa / skeleton.ScaleX
		sc := pc / skeleton.ScaleY
		pb = -sc * s * skeleton.ScaleX
		pd = sa * s * skeleton.ScaleY
		rotationIK += Atan2(sc, sa) * RadDeg
		fallthrough
	default:
		x, y := targetX-pwx, targetY-pwy
		d := pa*pd - pb*pc
		tx = (x*pd-y*pb)/d - bone.AX
		ty = (y*pa-x*pc)/d - bone.AY
	}
	rotationIK += Atan2(ty, tx) * RadDeg
	if bone.AScaleX < 0 {
		rotationIK += 180
	}
	if rotationIK > 180 {
		rotationIK -= 360
	} else if rotationIK < -180 {
		rotationIK += 360
	}
	sx, sy := bone.AScaleX, bone.AScaleY
	if compress || stretch {
		switch bone.Data.TransformMode {
		case TransformNoScale, TransformNoScaleOrReflection:
			tx = targetX - bone.WorldPos.X()
			ty = targetY - bone.WorldPos.Y()
		}
		b := bone.Data.Length * sx
		dd := Sqrt(tx*tx + ty*ty)
		if (compress && dd < b) || (stretch && dd > b) && b > 0.0001 {
			s := (dd/b-1)*alpha + 1
			sx *= s
			if uniform {
				sy *= s
			}
		}
	}
	bone.UpdateWorldTransformWith(bone.AX, bone.AY, bone.ARotation+rotationIK*alpha, sx, sy, bone.AShearX, bone.AShearY)
}

// ApplyIk2 父子两根骨骼，bendDir 决定弯曲方向，softness 让接近伸直时平滑
func ApplyIk2(parent, child *Bone, targetX, targetY float32, bendDir int, stretch bool, softness, alpha float32) {
	if alpha == 0 {
		child.UpdateWorldTransform()
		return
	}
	if !parent.AppliedValid {
		parent.UpdateAppliedTransform()
	}
	if !child.AppliedValid {
		child.UpdateAppliedTransform()
	}
	bend := float32(bendDir)
	px, py := parent.AX, parent.AY
	psx, psy := parent.AScaleX, parent.AScaleY
	sx := psx
	csx := child.AScaleX
	var os1, os2 float32
	s2 := float32(1)
	if psx < 0 {
		psx = -psx
		os1 = 180
		s2 = -1
	}
	if psy < 0 {
		psy = -psy
		s2 = -s2
	}
	if csx < 0 {
		csx = -csx
		os2 = 180
	}
	cx := child.AX
	var cy, cwx, cwy float32
	a, b, c, d := parent.A(), parent.B(), parent.C(), parent.D()
	u := Abs(psx-psy) <= 0.0001
	if !u {
		cy = 0
		cwx = a*cx + parent.WorldPos.X()
		cwy = c*cx + parent.WorldPos.Y()
	} else {
		cy = child.AY
		cwx = a*cx + b*cy + parent.WorldPos.X()
		cwy = c*cx + d*cy + parent.WorldPos.Y()
	}
	var ppx, ppy float32
	a, b, c, d, ppx, ppy = parentMat(parent)
	id := 1 / (a*d - b*c)
	x, y := cwx-ppx, cwy-ppy
	dx := (x*d-y*b)*id - px
	dy := (y*a-x*c)*id - py
	l1 := Sqrt(dx*dx + dy*dy)
	l2 := child.Data.Length * csx
	if l1 < 0.0001 {
		ApplyIk1(parent, targetX, targetY, false, stretch, false, alpha)
		child.UpdateWorldTransformWith(cx, cy, 0, child.AScaleX, child.AScaleY, child.AShearX, child.AShearY)
		return
	}
	x, y = targetX-ppx, targetY-ppy
	tx := (x*d-y*b)*id - px
	ty := (y*a-x*c)*id - py
	dd := tx*tx + ty*ty
	if softness != 0 {
		softness *= psx * (csx + 1) / 2
		td := Sqrt(dd)
		sd := td - l1 - l2*psx + softness
		if sd > 0 {
			p := min(1, sd/(softness*2)) - 1
			p = (sd - softness*(1-p*p)) / td
			tx -= p * tx
			ty -= p * ty
			dd = tx*tx + ty*ty
		}
	}
	var a1, a2 float32
	if u {
		l2 *= psx
		cos := (dd - l1*l1 - l2*l2) / (2 * l1 * l2)
		if cos < -1 {
			cos = -1
		} else if cos > 1 {
			cos = 1
			if stretch {
				sx *= (Sqrt(dd)/(l1+l2)-1)*alpha + 1
			}
		}
		a2 = Acos(cos) * bend
		a = l1 + l2*cos
		b = l2 * Sin(a2)
		a1 = Atan2(ty*a-tx*b, tx*a+ty*b)
	} else {
		a1, a2 = solveIkScaled(psx, psy, l1, l2, tx, ty, dd, bend)
	}
	os := Atan2(cy, cx) * s2
	rotation := parent.ARotation
	a1 = (a1-os)*RadDeg + os1 - rotation
	if a1 > 180 {
		a1 -= 360
	} else if a1 < -180 {
		a1 += 360
	}
	parent.UpdateWorldTransformWith(px, py, rotation+a1*alpha, sx, parent.AScaleY, 0, 0)
	rotation = child.ARotation
	a2 = ((a2+os)*RadDeg-child.AShearX)*s2 + os2 - rotation
	if a2 > 180 {
		a2 -= 360
	} else if a2 < -180 {
		a2 += 360
	}
	child.UpdateWorldTransformWith(cx, cy, rotation+a2*alpha, child.AScaleX, child.AScaleY, child.AShearX, child.AShearY)
}

// solveIkScaled 父骨骼非等比缩放时在椭圆上求解
func solveIkScaled(psx, psy, l1, l2, tx, ty, dd, bend float32) (float32, float32) {
	a := psx * l2
	b := psy * l2
	aa, bb := a*a, b*b
	ta := Atan2(ty, tx)
	c := bb*l1*l1 + aa*dd - aa*bb
	c1 := -2 * bb * l1
	c2 := bb - aa
	d := c1*c1 - 4*c2*c
	if d >= 0 {
		q := Sqrt(d)
		if c1 < 0 {
			q = -q
		}
		q = -(c1 + q) / 2
		r0, r1 := q/c2, c/q
		r := r1
		if Abs(r0) < Abs(r1) {
			r = r0
		}
		if r*r <= dd {
			y := Sqrt(dd-r*r) * bend
			return ta - Atan2(y, r), Atan2(y/psy, (r-l1)/psx)
		}
	}
	minAngle, minX, minY := Pi, l1-a, float32(0)
	minDist := minX * minX
	maxAngle, maxX, maxY := float32(0), l1+a, float32(0)
	maxDist := maxX * maxX
	c = -a * l1 / (aa - bb)
	if c >= -1 && c <= 1 {
		c = Acos(c)
		x := a*Cos(c) + l1
		y := b * Sin(c)
		d = x*x + y*y
		if d < minDist {
			minAngle, minDist, minX, minY = c, d, x, y
		}
		if d > maxDist {
			maxAngle, maxDist, maxX, maxY = c, d, x, y
		}
	}
	if dd <= (minDist+maxDist)/2 {
		return ta - Atan2(minY*bend, minX), minAngle * bend
	}
	return ta - Atan2(maxY*bend, maxX), maxAngle * bend
}
