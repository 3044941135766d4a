package vox

// Option is the type for a function option
type Option func(*Vox)

// Threshold is a functional option to set the RMS level above which a
// frame is considered voice. The range must be between 0 ... 1.
func Threshold(t float32) Option {
	return func(v *Vox) {
		v.threshold = t
	}
}

// HoldFrames is a functional option to set the amount of silent frames
// which are still reported as voice after the level dropped.
func HoldFrames(n int) Option {
	return func(v *Vox) {
		if n < 0 {
			n = 0
		}
		v.holdFrames = n
	}
}
