package scene

import "github.com/chewxy/math32"

// PlayMode selects how an animation's clock behaves when it reaches the end of
// its duration.
type PlayMode int

const (
	// PlayModeOnce plays to the end and stops there.
	PlayModeOnce PlayMode = iota

	// PlayModeLoop wraps back to the start and keeps playing.
	PlayModeLoop

	// PlayModePingPong reverses direction at each end, so the clock sweeps
	// forward to the end, then backward to the start, indefinitely. The
	// backward half is a real reversal of the clock, not a restart.
	PlayModePingPong
)

// TransformKey is one endpoint of an animated transform.
type TransformKey struct {
	Position [3]float32
	Rotation [3]float32 // Euler angles in radians
	Scale    [3]float32
}

// Animation interpolates an object's transform between two keys over a fixed
// duration. Advance drives the clock; the owning object samples the current
// transform when it rebuilds its world matrix.
type Animation struct {
	From     TransformKey
	To       TransformKey
	Duration float32
	Mode     PlayMode

	time     float32
	reversed bool
	done     bool
}

// NewAnimation creates an animation between two transform keys.
//
// Parameters:
//   - from: the transform at the start of the clip
//   - to: the transform at the end of the clip
//   - duration: clip length in seconds (minimum 1ms)
//   - mode: end-of-clip behavior
//
// Returns:
//   - *Animation: the animation, positioned at the start
func NewAnimation(from, to TransformKey, duration float32, mode PlayMode) *Animation {
	if duration < 0.001 {
		duration = 0.001
	}
	return &Animation{
		From:     from,
		To:       to,
		Duration: duration,
		Mode:     mode,
	}
}

// Advance moves the animation clock by dt seconds, honoring the play mode.
//
// Parameters:
//   - dt: elapsed time in seconds, must be non-negative
func (a *Animation) Advance(dt float32) {
	if a.done || dt <= 0 {
		return
	}
	switch a.Mode {
	case PlayModeOnce:
		a.time += dt
		if a.time >= a.Duration {
			a.time = a.Duration
			a.done = true
		}
	case PlayModeLoop:
		a.time += dt
		for a.time >= a.Duration {
			a.time -= a.Duration
		}
	case PlayModePingPong:
		remaining := dt
		for remaining > 0 {
			if a.reversed {
				a.time -= remaining
				remaining = 0
				if a.time < 0 {
					remaining = -a.time
					a.time = 0
					a.reversed = false
				}
			} else {
				a.time += remaining
				remaining = 0
				if a.time > a.Duration {
					remaining = a.time - a.Duration
					a.time = a.Duration
					a.reversed = true
				}
			}
		}
	}
}

// Progress returns the normalized clock position in [0, 1].
//
// Returns:
//   - float32: current position along the clip
func (a *Animation) Progress() float32 {
	return a.time / a.Duration
}

// Reversed reports whether a ping-pong animation is currently sweeping
// backward.
//
// Returns:
//   - bool: true while the clock runs from end to start
func (a *Animation) Reversed() bool {
	return a.reversed
}

// Done reports whether a one-shot animation has finished.
//
// Returns:
//   - bool: true once a PlayModeOnce clip reached its end
func (a *Animation) Done() bool {
	return a.done
}

// Reset returns the clock to the start, clearing reversal and completion
// state.
func (a *Animation) Reset() {
	a.time = 0
	a.reversed = false
	a.done = false
}

// Sample returns the interpolated transform at the current clock position.
//
// Returns:
//   - TransformKey: the blended transform
func (a *Animation) Sample() TransformKey {
	t := a.Progress()
	return TransformKey{
		Position: lerp3(a.From.Position, a.To.Position, t),
		Rotation: lerp3(a.From.Rotation, a.To.Rotation, t),
		Scale:    lerp3(a.From.Scale, a.To.Scale, t),
	}
}

func lerp3(from, to [3]float32, t float32) [3]float32 {
	t = math32.Max(0, math32.Min(1, t))
	return [3]float32{
		from[0] + (to[0]-from[0])*t,
		from[1] + (to[1]-from[1])*t,
		from[2] + (to[2]-from[2])*t,
	}
}
