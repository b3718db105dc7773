package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

type TransformConstraint struct {
	Data         *TransformConstraintData
	Bones        []*Bone
	Target       *Bone
	RotateMix    float32
	TranslateMix float32
	ScaleMix     float32
	ShearMix     float32
	active       bool
}

func NewTransformConstraint(data *TransformConstraintData, skeleton *Skeleton) *TransformConstraint {
	res := &TransformConstraint{Data: data, Target: skeleton.Bones[data.Target.Index]}
	for _, item := range data.Bones {
		res.Bones = append(res.Bones, skeleton.Bones[item.Index])
	}
	res.SetToSetupPose()
	return res
}

func (c *TransformConstraint) SetToSetupPose() {
	c.RotateMix = c.Data.RotateMix
	c.TranslateMix = c.Data.TranslateMix
	c.ScaleMix = c.Data.ScaleMix
	c.ShearMix = c.Data.ShearMix
}

func (c *TransformConstraint) IsActive() bool {
	return c.active
}

// Update local 作用在局部变换上，relative 表示叠加而不是趋近
func (c *TransformConstraint) Update() {
	switch {
	case c.Data.Local && c.Data.Relative:
		c.applyRelativeLocal()
	case c.Data.Local:
		c.applyAbsoluteLocal()
	case c.Data.Relative:
		c.applyRelativeWorld()
	default:
		c.applyAbsoluteWorld()
	}
}

// reflect 目标矩阵有镜像时角度偏移要取反
func (c *TransformConstraint) reflect() float32 {
	t := c.Target
	if t.A()*t.D()-t.B()*t.C() > 0 {
		return DegRad
	}
	return -DegRad
}

func rotateBoneWorld(bone *Bone, r float32) {
	a, b, c, d := bone.A(), bone.B(), bone.C(), bone.D()
	cos, sin := Cos(r), Sin(r)
	bone.Mat2 = NewMat2(cos*a-sin*c, cos*b-sin*d, sin*a+cos*c, sin*b+cos*d)
}

func (c *TransformConstraint) applyAbsoluteWorld() {
	target := c.Target
	ta, tb, tc, td := target.A(), target.B(), target.C(), target.D()
	degRadReflect := c.reflect()
	offsetRotation := c.Data.OffsetRotation * degRadReflect
	offsetShearY := c.Data.OffsetShearY * degRadReflect
	for _, bone := range c.Bones {
		modified := false
		if c.RotateMix != 0 {
			r := Atan2(tc, ta) - Atan2(bone.C(), bone.A()) + offsetRotation
			rotateBoneWorld(bone, WrapRadians(r)*c.RotateMix)
			modified = true
		}
		if c.TranslateMix != 0 {
			pos := target.LocalToWorld(mgl32.Vec2{c.Data.OffsetX, c.Data.OffsetY})
			bone.WorldPos = bone.WorldPos.Add(pos.Sub(bone.WorldPos).Mul(c.TranslateMix))
			modified = true
		}
		if c.ScaleMix > 0 {
			s := Sqrt(bone.A()*bone.A() + bone.C()*bone.C())
			if s != 0 {
				s = (s + (Sqrt(ta*ta+tc*tc)-s+c.Data.OffsetScaleX)*c.ScaleMix) / s
			}
			bone.Mat2[0] *= s
			bone.Mat2[1] *= s
			s = Sqrt(bone.B()*bone.B() + bone.D()*bone.D())
			if s != 0 {
				s = (s + (Sqrt(tb*tb+td*td)-s+c.Data.OffsetScaleY)*c.ScaleMix) / s
			}
			bone.Mat2[2] *= s
			bone.Mat2[3] *= s
			modified = true
		}
		if c.ShearMix > 0 {
			b, d := bone.B(), bone.D()
			by := Atan2(d, b)
			r := WrapRadians(Atan2(td, tb) - Atan2(tc, ta) - (by - Atan2(bone.C(), bone.A())))
			r = by + (r+offsetShearY)*c.ShearMix
			s := Sqrt(b*b + d*d)
			bone.Mat2[2] = Cos(r) * s
			bone.Mat2[3] = Sin(r) * s
			modified = true
		}
		if modified {
			bone.AppliedValid = false
		}
	}
}

func (c *TransformConstraint) applyRelativeWorld() {
	target := c.Target
	ta, tb, tc, td := target.A(), target.B(), target.C(), target.D()
	degRadReflect := c.reflect()
	offsetRotation := c.Data.OffsetRotation * degRadReflect
	offsetShearY := c.Data.OffsetShearY * degRadReflect
	for _, bone := range c.Bones {
		modified := false
		if c.RotateMix != 0 {
			r := Atan2(tc, ta) + offsetRotation
			rotateBoneWorld(bone, WrapRadians(r)*c.RotateMix)
			modified = true
		}
		if c.TranslateMix != 0 {
			pos := target.LocalToWorld(mgl32.Vec2{c.Data.OffsetX, c.Data.OffsetY})
			bone.WorldPos = bone.WorldPos.Add(pos.Mul(c.TranslateMix))
			modified = true
		}
		if c.ScaleMix > 0 {
			s := (Sqrt(ta*ta+tc*tc)-1+c.Data.OffsetScaleX)*c.ScaleMix + 1
			bone.Mat2[0] *= s
			bone.Mat2[1] *= s
			s = (Sqrt(tb*tb+td*td)-1+c.Data.OffsetScaleY)*c.ScaleMix + 1
			bone.Mat2[2] *= s
			bone.Mat2[3] *= s
			modified = true
		}
		if c.ShearMix > 0 {
			r := WrapRadians(Atan2(td, tb) - Atan2(tc, ta))
			b, d := bone.B(), bone.D()
			r = Atan2(d, b) + (r-Pi/2+offsetShearY)*c.ShearMix
			s := Sqrt(b*b + d*d)
			bone.Mat2[2] = Cos(r) * s
			bone.Mat2[3] = Sin(r) * s
			modified = true
		}
		if modified {
			bone.AppliedValid = false
		}
	}
}

func (c *TransformConstraint) applyAbsoluteLocal() {
	target := c.Target
	if !target.AppliedValid {
		target.UpdateAppliedTransform()
	}
	data := c.Data
	for _, bone := range c.Bones {
		if !bone.AppliedValid {
			bone.UpdateAppliedTransform()
		}
		rotation := bone.ARotation
		if c.RotateMix != 0 {
			rotation += WrapDegrees(target.ARotation-rotation+data.OffsetRotation) * c.RotateMix
		}
		x, y := bone.AX, bone.AY
		if c.TranslateMix != 0 {
			x += (target.AX - x + data.OffsetX) * c.TranslateMix
			y += (target.AY - y + data.OffsetY) * c.TranslateMix
		}
		scaleX, scaleY := bone.AScaleX, bone.AScaleY
		if c.ScaleMix != 0 {
			scaleX += (target.AScaleX - scaleX + data.OffsetScaleX) * c.ScaleMix
			scaleY += (target.AScaleY - scaleY + data.OffsetScaleY) * c.ScaleMix
		}
		shearY := bone.AShearY
		if c.ShearMix != 0 {
			shearY += WrapDegrees(target.AShearY-shearY+data.OffsetShearY) * c.ShearMix
		}
		bone.UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, bone.AShearX, shearY)
	}
}

func (c *TransformConstraint) applyRelativeLocal() {
	target := c.Target
	if !target.AppliedValid {
		target.UpdateAppliedTransform()
	}
	data := c.Data
	for _, bone := range c.Bones {
		if !bone.AppliedValid {
			bone.UpdateAppliedTransform()
		}
		rotation := bone.ARotation
		if c.RotateMix != 0 {
			rotation += (target.ARotation + data.OffsetRotation) * c.RotateMix
		}
		x, y := bone.AX, bone.AY
		if c.TranslateMix != 0 {
			x += (target.AX + data.OffsetX) * c.TranslateMix
			y += (target.AY + data.OffsetY) * c.TranslateMix
		}
		scaleX, scaleY := bone.AScaleX, bone.AScaleY
		if c.ScaleMix != 0 {
			scaleX *= (target.AScaleX-1+data.OffsetScaleX)*c.ScaleMix + 1
			scaleY *= (target.AScaleY-1+data.OffsetScaleY)*c.ScaleMix + 1
		}
		shearY := bone.AShearY
		if c.ShearMix != 0 {
			shearY += (target.AShearY + data.OffsetShearY) * c.ShearMix
		}
		bone.UpdateWorldTransformWith(x, y, rotation, scaleX, scaleY, bone.AShearX, shearY)
	}
}
