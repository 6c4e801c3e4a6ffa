// Package viz provides the terminal live view of a heat-bath run.
//
// [Model] is a Bubble Tea model that advances the case a few flow steps per
// frame and plots Ttr and Tv as they relax toward each other.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	+/-   - More/fewer flow steps per frame
//	[/]   - Time travel (rewind/forward)
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
