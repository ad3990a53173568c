package audioio

// Resample converts mono audio from one sample rate to another using linear
// interpolation. Cues are short tones, so interpolation artifacts are inaudible.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen == 0 {
		return []int16{}
	}

	result := make([]int16, newLen)
	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		if srcIdx >= len(samples)-1 {
			result[i] = samples[len(samples)-1]
		} else {
			s1 := float64(samples[srcIdx])
			s2 := float64(samples[srcIdx+1])
			result[i] = int16(s1 + frac*(s2-s1))
		}
	}
	return result
}

// ResampleInterleaved resamples each channel of interleaved audio.
func ResampleInterleaved(samples []int16, channels, fromRate, toRate int) []int16 {
	if channels <= 1 {
		return Resample(samples, fromRate, toRate)
	}
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	frames := len(samples) / channels
	planes := make([][]int16, channels)
	for ch := range planes {
		plane := make([]int16, frames)
		for f := 0; f < frames; f++ {
			plane[f] = samples[f*channels+ch]
		}
		planes[ch] = Resample(plane, fromRate, toRate)
	}

	outFrames := len(planes[0])
	out := make([]int16, outFrames*channels)
	for f := 0; f < outFrames; f++ {
		for ch := range planes {
			out[f*channels+ch] = planes[ch][f]
		}
	}
	return out
}

// Conform converts a chunk to the sample rate and channel count of cfg.
func Conform(chunk AudioChunk, cfg Config) AudioChunk {
	samples := chunk.Samples
	channels := chunk.Channels
	if channels <= 0 {
		channels = 1
	}

	switch {
	case channels == 2 && cfg.Channels == 1:
		samples = StereoToMono(samples)
		channels = 1
	case channels == 1 && cfg.Channels == 2:
		samples = MonoToStereo(samples)
		channels = 2
	}

	rate := chunk.SampleRate
	if rate > 0 && rate != cfg.SampleRate {
		samples = ResampleInterleaved(samples, channels, rate, cfg.SampleRate)
	}

	return AudioChunk{Samples: samples, SampleRate: cfg.SampleRate, Channels: channels}
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// MonoToStereo duplicates mono samples to stereo.
func MonoToStereo(samples []int16) []int16 {
	stereo := make([]int16, len(samples)*2)
	for i, s := range samples {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	return stereo
}

// StereoToMono averages stereo samples to mono.
func StereoToMono(samples []int16) []int16 {
	mono := make([]int16, len(samples)/2)
	for i := range mono {
		left := int32(samples[i*2])
		right := int32(samples[i*2+1])
		mono[i] = int16((left + right) / 2)
	}
	return mono
}
