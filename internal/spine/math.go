package spine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	Pi     = float32(math.Pi)
	Pi2    = Pi * 2
	RadDeg = 180 / Pi
	DegRad = Pi / 180
)

func CosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg * DegRad)))
}

func SinDeg(deg float32) float32 {
	return float32(math.Sin(float64(deg * DegRad)))
}

func Cos(rad float32) float32 {
	return float32(math.Cos(float64(rad)))
}

func Sin(rad float32) float32 {
	return float32(math.Sin(float64(rad)))
}

func Atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

func Acos(v float32) float32 {
	return float32(math.Acos(float64(v)))
}

func Sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func Abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func Signum(v float32) float32 {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func Lerp(a, b, rate float32) float32 {
	return a + (b-a)*rate
}

func Vec2Lerp(a, b mgl32.Vec2, rate float32) mgl32.Vec2 {
	return mgl32.Vec2{Lerp(a[0], b[0], rate), Lerp(a[1], b[1], rate)}
}

func Vec4Lerp(a, b mgl32.Vec4, rate float32) mgl32.Vec4 {
	return mgl32.Vec4{Lerp(a[0], b[0], rate), Lerp(a[1], b[1], rate), Lerp(a[2], b[2], rate), Lerp(a[3], b[3], rate)}
}

func Vec4Mul(v1, v2 mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{v1.X() * v2.X(), v1.Y() * v2.Y(), v1.Z() * v2.Z(), v1.W() * v2.W()}
}

// WrapDegrees 把角度差收敛到 [-180, 180]
func WrapDegrees(r float32) float32 {
	return r - float32(16384-int32(16384.499999999996-float64(r)/360))*360
}

// WrapRadians 把弧度收敛到 [-Pi, Pi]
func WrapRadians(r float32) float32 {
	if r > Pi {
		return r - Pi2
	} else if r < -Pi {
		return r + Pi2
	}
	return r
}

// NewMat2 按 spine 的 a b c d 构造矩阵，mgl32 是列主序
func NewMat2(a, b, c, d float32) mgl32.Mat2 {
	return mgl32.Mat2{a, c, b, d}
}

func RotateScale(rotate, scaleX, scaleY float32) mgl32.Mat2 {
	cos, sin := CosDeg(rotate), SinDeg(rotate)
	return NewMat2(cos*scaleX, -sin*scaleY, sin*scaleX, cos*scaleY)
}
