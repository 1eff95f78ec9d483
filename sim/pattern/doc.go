// Package pattern provides named seed patterns for the Life server.
//
// Patterns are small YAML documents describing a shape as layout rows of
// '.' (dead) and 'O' (alive):
//
//	name: Glider
//	description: The smallest spaceship.
//	layout:
//	  - ".O."
//	  - "..O"
//	  - "OOO"
//
// A built-in set (glider, blinker, toad, beacon, pulsar, and friends) is
// embedded in the binary; a pattern directory on disk overlays it, letting
// deployments add shapes without rebuilding. Files on disk win on name
// collisions. Manager implements service.PatternManager.
package pattern
