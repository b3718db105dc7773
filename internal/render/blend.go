package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"spine_treats/internal/spine"
)

// BlendMap 贴图在 ebiten 内部都是预乘透明度的，PMA 与否用同一套混合
var BlendMap = map[spine.BlendMode]ebiten.Blend{
	spine.BlendNormal:   ebiten.BlendSourceOver,
	spine.BlendAdditive: ebiten.BlendLighter,
	spine.BlendMultiply: {
		// 源因子：前景颜色乘以背景颜色
		BlendFactorSourceRGB:   ebiten.BlendFactorDestinationColor,
		BlendFactorSourceAlpha: ebiten.BlendFactorOne,
		// 目标因子：背景保留 (1 - 前景透明度)
		BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	},
	spine.BlendScreen: {
		// 源因子：完全使用前景颜色和透明度
		BlendFactorSourceRGB:   ebiten.BlendFactorOne,
		BlendFactorSourceAlpha: ebiten.BlendFactorOne,
		// 目标因子：背景颜色乘以 (1 - 前景颜色)
		BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	},
}

func blendFor(mode spine.BlendMode) ebiten.Blend {
	if res, ok := BlendMap[mode]; ok {
		return res
	}
	return ebiten.BlendSourceOver
}
