package spine

import (
	"fmt"
)

type animationPair struct {
	from, to *Animation
}

// AnimationStateData 两个动画之间的过渡时长
type AnimationStateData struct {
	SkeletonData *SkeletonData
	DefaultMix   float32
	mixes        map[animationPair]float32
}

func NewAnimationStateData(data *SkeletonData) *AnimationStateData {
	return &AnimationStateData{SkeletonData: data, mixes: make(map[animationPair]float32)}
}

func (d *AnimationStateData) SetMixByName(fromName, toName string, duration float32) error {
	from := d.SkeletonData.FindAnimation(fromName)
	if from == nil {
		return fmt.Errorf("%w: %s", ErrAnimationNotFound, fromName)
	}
	to := d.SkeletonData.FindAnimation(toName)
	if to == nil {
		return fmt.Errorf("%w: %s", ErrAnimationNotFound, toName)
	}
	d.SetMix(from, to, duration)
	return nil
}

func (d *AnimationStateData) SetMix(from, to *Animation, duration float32) {
	d.mixes[animationPair{from: from, to: to}] = duration
}

// GetMix 没有单独设置时返回 DefaultMix
func (d *AnimationStateData) GetMix(from, to *Animation) float32 {
	if res, ok := d.mixes[animationPair{from: from, to: to}]; ok {
		return res
	}
	return d.DefaultMix
}
