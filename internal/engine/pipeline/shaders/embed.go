// Package shaders provides the embedded GLSL sources of the terrain passes.
// A shaders directory on disk with the same file names overrides them.
package shaders

import "embed"

// FS holds every .vert and .frag file of the pipeline.
//
//go:embed *.vert *.frag
var FS embed.FS

// Program source pairs, by pass.
const (
	NoiseVert       = "noise.vert"
	NoiseFrag       = "noise.frag"
	NormalVert      = "normal.vert"
	NormalFrag      = "normal.frag"
	GridVert        = "grid.vert"
	GridFrag        = "grid.frag"
	PostProcessVert = "postprocess.vert"
	PostProcessFrag = "postprocess.frag"
	DebugNoiseVert  = "debugNoise.vert"
	DebugNoiseFrag  = "debugNoise.frag"
	DebugNormalVert = "debugNormal.vert"
	DebugNormalFrag = "debugNormal.frag"
)
