//go:build !race

package ripple

const raceEnabled = false
