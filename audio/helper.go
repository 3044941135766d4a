package audio

// DownmixToMono averages interleaved multi channel samples into a single
// channel. Mono input is copied.
func DownmixToMono(channels int, samples []int16) []int16 {
	if channels <= 1 {
		return Copy(samples)
	}

	frames := len(samples) / channels
	res := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		res[i] = int16(sum / int32(channels))
	}
	return res
}

// PadToMultiple returns samples extended with zeros up to the next multiple
// of n. The input is returned unchanged if it is already aligned.
func PadToMultiple(samples []int16, n int) []int16 {
	if n <= 0 {
		return samples
	}
	rest := len(samples) % n
	if rest == 0 {
		return samples
	}
	padded := make([]int16, len(samples)+n-rest)
	copy(padded, samples)
	return padded
}
