package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Updatable 更新缓存中的元素，骨骼与约束
type Updatable interface {
	Update()
	IsActive() bool
}

type Bone struct {
	Data     *BoneData
	Skeleton *Skeleton
	Parent   *Bone
	Children []*Bone
	// 局部变换，动画直接修改
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32
	// 实际应用的局部变换，约束修改世界矩阵后需要反算
	AX, AY       float32
	ARotation    float32
	AScaleX      float32
	AScaleY      float32
	AShearX      float32
	AShearY      float32
	AppliedValid bool
	// 世界变换
	Mat2     mgl32.Mat2
	WorldPos mgl32.Vec2

	sorted bool
	active bool
}

func NewBone(data *BoneData, skeleton *Skeleton, parent *Bone) *Bone {
	res := &Bone{Data: data, Skeleton: skeleton, Parent: parent}
	res.SetToSetupPose()
	return res
}

func (b *Bone) A() float32 { return b.Mat2[0] }
func (b *Bone) B() float32 { return b.Mat2[2] }
func (b *Bone) C() float32 { return b.Mat2[1] }
func (b *Bone) D() float32 { return b.Mat2[3] }

func (b *Bone) IsActive() bool {
	return b.active
}

func (b *Bone) Update() {
	b.UpdateWorldTransformWith(b.X, b.Y, b.Rotation, b.ScaleX, b.ScaleY, b.ShearX, b.ShearY)
}

func (b *Bone) UpdateWorldTransform() {
	b.Update()
}

// UpdateWorldTransformWith 按变换模式继承父骨骼，最后乘上骨架整体缩放
func (b *Bone) UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, shearX, shearY float32) {
	b.AX, b.AY = x, y
	b.ARotation = rotation
	b.AScaleX, b.AScaleY = scaleX, scaleY
	b.AShearX, b.AShearY = shearX, shearY
	b.AppliedValid = true

	skeleton := b.Skeleton
	sx, sy := skeleton.ScaleX, skeleton.ScaleY
	parent := b.Parent
	if parent == nil { // 根骨骼
		rotationY := rotation + 90 + shearY
		b.Mat2 = NewMat2(CosDeg(rotation+shearX)*scaleX*sx, CosDeg(rotationY)*scaleY*sx,
			SinDeg(rotation+shearX)*scaleX*sy, SinDeg(rotationY)*scaleY*sy)
		b.WorldPos = mgl32.Vec2{x*sx + skeleton.X, y*sy + skeleton.Y}
		return
	}

	pa, pb, pc, pd := parent.A(), parent.B(), parent.C(), parent.D()
	b.WorldPos = parent.LocalToWorld(mgl32.Vec2{x, y})
	var a, bb, c, d float32
	switch b.Data.TransformMode {
	case TransformNormal:
		rotationY := rotation + 90 + shearY
		la := CosDeg(rotation+shearX) * scaleX
		lb := CosDeg(rotationY) * scaleY
		lc := SinDeg(rotation+shearX) * scaleX
		ld := SinDeg(rotationY) * scaleY
		b.Mat2 = NewMat2(pa*la+pb*lc, pa*lb+pb*ld, pc*la+pd*lc, pc*lb+pd*ld)
		return // 父矩阵已经包含骨架缩放
	case TransformOnlyTranslation:
		rotationY := rotation + 90 + shearY
		a = CosDeg(rotation+shearX) * scaleX
		bb = CosDeg(rotationY) * scaleY
		c = SinDeg(rotation+shearX) * scaleX
		d = SinDeg(rotationY) * scaleY
	case TransformNoRotationOrReflection:
		s := pa*pa + pc*pc
		var prx float32
		if s > 0.0001 {
			s = Abs(pa*pd-pb*pc) / s
			pa /= sx
			pc /= sy
			pb = pc * s
			pd = pa * s
			prx = Atan2(pc, pa) * RadDeg
		} else {
			pa, pc = 0, 0
			prx = 90 - Atan2(pd, pb)*RadDeg
		}
		rx := rotation + shearX - prx
		ry := rotation + shearY - prx + 90
		la := CosDeg(rx) * scaleX
		lb := CosDeg(ry) * scaleY
		lc := SinDeg(rx) * scaleX
		ld := SinDeg(ry) * scaleY
		a = pa*la - pb*lc
		bb = pa*lb - pb*ld
		c = pc*la + pd*lc
		d = pc*lb + pd*ld
	case TransformNoScale, TransformNoScaleOrReflection:
		cos, sin := CosDeg(rotation), SinDeg(rotation)
		za := (pa*cos + pb*sin) / sx
		zc := (pc*cos + pd*sin) / sy
		s := Sqrt(za*za + zc*zc)
		if s > 0.00001 {
			s = 1 / s
		}
		za *= s
		zc *= s
		s = Sqrt(za*za + zc*zc)
		if b.Data.TransformMode == TransformNoScale && (pa*pd-pb*pc < 0) != ((sx < 0) != (sy < 0)) {
			s = -s
		}
		r := Pi/2 + Atan2(zc, za)
		zb := Cos(r) * s
		zd := Sin(r) * s
		la := CosDeg(shearX) * scaleX
		lb := CosDeg(90+shearY) * scaleY
		lc := SinDeg(shearX) * scaleX
		ld := SinDeg(90+shearY) * scaleY
		a = za*la + zb*lc
		bb = za*lb + zb*ld
		c = zc*la + zd*lc
		d = zc*lb + zd*ld
	}
	b.Mat2 = NewMat2(a*sx, bb*sx, c*sy, d*sy)
}

func (b *Bone) SetToSetupPose() {
	data := b.Data
	b.X, b.Y = data.X, data.Y
	b.Rotation = data.Rotation
	b.ScaleX, b.ScaleY = data.ScaleX, data.ScaleY
	b.ShearX, b.ShearY = data.ShearX, data.ShearY
}

// UpdateAppliedTransform 从世界矩阵反算局部变换，约束修改世界矩阵后使用
func (b *Bone) UpdateAppliedTransform() {
	b.AppliedValid = true
	a, bb, c, d := b.A(), b.B(), b.C(), b.D()
	parent := b.Parent
	if parent == nil {
		b.AX = b.WorldPos.X() - b.Skeleton.X
		b.AY = b.WorldPos.Y() - b.Skeleton.Y
		b.ARotation = Atan2(c, a) * RadDeg
		b.AScaleX = Sqrt(a*a + c*c)
		b.AScaleY = Sqrt(bb*bb + d*d)
		b.AShearX = 0
		b.AShearY = Atan2(a*bb+c*d, a*d-bb*c) * RadDeg
		return
	}
	pa, pb, pc, pd := parent.A(), parent.B(), parent.C(), parent.D()
	pid := 1 / (pa*pd - pb*pc)
	dx := b.WorldPos.X() - parent.WorldPos.X()
	dy := b.WorldPos.Y() - parent.WorldPos.Y()
	b.AX = dx*pd*pid - dy*pb*pid
	b.AY = dy*pa*pid - dx*pc*pid
	ia, id, ib, ic := pid*pd, pid*pa, pid*pb, pid*pc
	ra := ia*a - ib*c
	rb := ia*bb - ib*d
	rc := id*c - ic*a
	rd := id*d - ic*bb
	b.AShearX = 0
	b.AScaleX = Sqrt(ra*ra + rc*rc)
	if b.AScaleX > 0.0001 {
		det := ra*rd - rb*rc
		b.AScaleY = det / b.AScaleX
		b.AShearY = Atan2(ra*rb+rc*rd, det) * RadDeg
		b.ARotation = Atan2(rc, ra) * RadDeg
	} else {
		b.AScaleX = 0
		b.AScaleY = Sqrt(rb*rb + rd*rd)
		b.AShearY = 0
		b.ARotation = 90 - Atan2(rd, rb)*RadDeg
	}
}

func (b *Bone) WorldRotationX() float32 {
	return Atan2(b.C(), b.A()) * RadDeg
}

func (b *Bone) WorldRotationY() float32 {
	return Atan2(b.D(), b.B()) * RadDeg
}

func (b *Bone) WorldScaleX() float32 {
	return Sqrt(b.A()*b.A() + b.C()*b.C())
}

func (b *Bone) WorldScaleY() float32 {
	return Sqrt(b.B()*b.B() + b.D()*b.D())
}

func (b *Bone) LocalToWorld(local mgl32.Vec2) mgl32.Vec2 {
	return b.Mat2.Mul2x1(local).Add(b.WorldPos)
}

func (b *Bone) WorldToLocal(world mgl32.Vec2) mgl32.Vec2 {
	a, bb, c, d := b.A(), b.B(), b.C(), b.D()
	invDet := 1 / (a*d - bb*c)
	x := world.X() - b.WorldPos.X()
	y := world.Y() - b.WorldPos.Y()
	return mgl32.Vec2{x*d*invDet - y*bb*invDet, y*a*invDet - x*c*invDet}
}

func (b *Bone) WorldToLocalRotation(worldRotation float32) float32 {
	sin, cos := SinDeg(worldRotation), CosDeg(worldRotation)
	return Atan2(b.A()*sin-b.C()*cos, b.D()*cos-b.B()*sin)*RadDeg + b.Rotation - b.ShearX
}

func (b *Bone) LocalToWorldRotation(localRotation float32) float32 {
	localRotation -= b.Rotation - b.ShearX
	sin, cos := SinDeg(localRotation), CosDeg(localRotation)
	return Atan2(cos*b.C()+sin*b.D(), cos*b.A()+sin*b.B()) * RadDeg
}

// RotateWorld 直接旋转世界矩阵，之后需要 UpdateAppliedTransform
func (b *Bone) RotateWorld(degrees float32) {
	a, bb, c, d := b.A(), b.B(), b.C(), b.D()
	cos, sin := CosDeg(degrees), SinDeg(degrees)
	b.Mat2 = NewMat2(cos*a-sin*c, cos*bb-sin*d, sin*a+cos*c, sin*bb+cos*d)
	b.AppliedValid = false
}

func (b *Bone) String() string {
	return b.Data.Name
}
