package render

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// twoColorShaderSrc 插槽有暗色时使用，颜色均为预乘透明度
const twoColorShaderSrc = `//kage:unit pixels
package main

var Light vec4
var Dark vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	rgb := (vec3(c.a)-c.rgb)*Dark.rgb + c.rgb*Light.rgb
	return vec4(rgb, c.a) * Light.a
}
`

var twoColorShader *ebiten.Shader

func ensureTwoColorShader() *ebiten.Shader {
	if twoColorShader == nil {
		s, err := ebiten.NewShader([]byte(twoColorShaderSrc))
		if err != nil {
			panic("render: failed to compile two color shader: " + err.Error())
		}
		twoColorShader = s
	}
	return twoColorShader
}
