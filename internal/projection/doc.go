// Package projection turns a flat stereo frame into the shared skybox
// render target sampled by both eye cameras.
//
// A frame's layout is classified from its aspect ratio (Classify), mapped
// to a Strategy that yields one BlitPlan per eye, and the Compositor
// executes those plans: an optional fisheye correction pass into a cached
// buffer followed by a windowed blit into the RenderTarget.
//
// UV coordinates follow texture conventions: u grows to the right and v
// grows upwards, so v=0 is the bottom row of the image.
package projection
