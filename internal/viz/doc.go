// Package viz renders a rigid-body scene in the terminal.
//
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//   - [Camera] and [Renderer]: perspective projection of draw calls onto a canvas
//   - [Model]: Bubble Tea live view that owns and steps the scene
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	.     - Single step while paused
//	R     - Rebuild the scenario
//	P     - Toggle the octree broad phase
//	O / C - Show octree cells / tint bodies by cell
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
