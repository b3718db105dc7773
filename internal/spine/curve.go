package spine

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveStepped
	CurveBezier
)

// Curve 描述从当前帧到下一帧的插值方式，Data 是两个贝塞尔控制点
type Curve struct {
	Type CurveType
	Data [2]mgl32.Vec2
}

var (
	LinearCurve  = &Curve{Type: CurveLinear}
	SteppedCurve = &Curve{Type: CurveStepped}
)

func NewBezierCurve(cx1, cy1, cx2, cy2 float32) *Curve {
	return &Curve{Type: CurveBezier, Data: [2]mgl32.Vec2{{cx1, cy1}, {cx2, cy2}}}
}

func evalBezier(c1, c2, rate float32) float32 {
	invRate := 1 - rate
	return rate*rate*rate + 3*rate*rate*invRate*c2 + 3*rate*invRate*invRate*c1
}

const (
	bezierEpsilon  = 0.00001
	bezierMaxSteps = 32
)

// findX 二分求解 x(t) = rate，次数有上限
func findX(curve [2]mgl32.Vec2, rate float32) float32 {
	start, stop := float32(0), float32(1)
	res := float32(0.5)
	for i := 0; i < bezierMaxSteps; i++ {
		x := evalBezier(curve[0].X(), curve[1].X(), res)
		if Abs(rate-x) <= bezierEpsilon {
			break
		}
		if rate < x {
			stop = res
		} else {
			start = res
		}
		res = (stop + start) * 0.5
	}
	return res
}

// CurveVal rate 0~1 映射到插值比例，nil 按线性
func CurveVal(curve *Curve, rate float32) float32 {
	rate = Clamp(rate, 0, 1)
	if curve == nil {
		return rate
	}
	switch curve.Type {
	case CurveLinear:
		return rate
	case CurveStepped:
		return 0
	case CurveBezier:
		t := findX(curve.Data, rate)
		return evalBezier(curve.Data[0].Y(), curve.Data[1].Y(), t)
	default:
		panic(fmt.Sprintf("invalid curve type: %v", curve.Type))
	}
}

type KeyFrame struct {
	Time  float32
	Curve *Curve // 到下一帧的曲线，最后一帧忽略
}

func (k KeyFrame) frameTime() float32 {
	return k.Time
}

type frame interface {
	frameTime() float32
}

// frameIndex 最后一个 Time <= time 的帧，在第一帧之前返回 -1
func frameIndex[F frame](frames []F, time float32) int {
	return sort.Search(len(frames), func(i int) bool {
		return frames[i].frameTime() > time
	}) - 1
}

// framePercent 当前帧到下一帧之间经过曲线后的比例
func framePercent(pre, next KeyFrame, time float32) float32 {
	if next.Time <= pre.Time {
		return 0
	}
	return CurveVal(pre.Curve, (time-pre.Time)/(next.Time-pre.Time))
}
