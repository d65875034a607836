package audio

import (
	"math"
)

// Span represents one chunk of the source signal as a half-open sample
// range [Start, End).
type Span struct {
	Start int `json:"start_sample"`
	End   int `json:"end_sample"`
}

// SegmenterConfig contains the silence-detection chunking parameters.
// Lengths are given in milliseconds relative to SampleRate.
type SegmenterConfig struct {
	SampleRate       int
	MinChunkLengthMS int
	MaxChunkLengthMS int
	FrameLengthMS    int
	OverlapMS        int
}

// DefaultSegmenterConfig returns the production chunking parameters used
// for helpline call recordings.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		SampleRate:       16000,
		MinChunkLengthMS: 3000,
		MaxChunkLengthMS: 7000,
		FrameLengthMS:    30,
		OverlapMS:        2000,
	}
}

// AdjustToFrameLength rounds a chunk length up to the nearest multiple of
// the frame length so chunk boundaries always fall on frame boundaries.
func AdjustToFrameLength(chunkLengthMS, frameLengthMS int) int {
	return ((chunkLengthMS + frameLengthMS - 1) / frameLengthMS) * frameLengthMS
}

// SamplesPerMS converts a duration in milliseconds to a sample count
func SamplesPerMS(sampleRate, ms int) int {
	return sampleRate * ms / 1000
}

// frameEnergy is the sum of squared samples of one frame
func frameEnergy(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return sum
}

// frameZCR counts sign changes between adjacent samples of one frame
func frameZCR(frame []float64) float64 {
	var crossings int
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings)
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// computeDynamicThresholds divides the signal into fixed-length segments and
// derives one (energy, zcr) silence threshold pair per segment as
// mean + 3*stddev of the per-frame statistics. Absolute silence and noise
// levels drift across a long recording, so a single global threshold would
// misclassify quiet sections.
func computeDynamicThresholds(samples []float64, frameLength, segmentLength int) (energyThresholds, zcrThresholds []float64) {
	for i := 0; i < len(samples); i += segmentLength {
		end := i + segmentLength
		if end > len(samples) {
			end = len(samples)
		}
		segment := samples[i:end]

		nFrames := len(segment) / frameLength
		if nFrames < 1 {
			nFrames = 1
		}

		energies := make([]float64, 0, nFrames)
		zcrs := make([]float64, 0, nFrames)
		for j := 0; j < nFrames; j++ {
			frameEnd := (j + 1) * frameLength
			if frameEnd > len(segment) {
				frameEnd = len(segment)
			}
			frame := segment[j*frameLength : frameEnd]
			energies = append(energies, frameEnergy(frame))
			zcrs = append(zcrs, frameZCR(frame))
		}

		eMean, eStd := meanStd(energies)
		zMean, zStd := meanStd(zcrs)
		energyThresholds = append(energyThresholds, eMean+3*eStd)
		zcrThresholds = append(zcrThresholds, zMean+3*zStd)
	}

	return energyThresholds, zcrThresholds
}

// SegmentSignal splits a mono signal into chunk spans using adaptive silence
// detection. The signal is analyzed in non-overlapping frames; a frame is
// silent when both its energy and its zero-crossing rate fall at or below the
// thresholds of the signal segment it belongs to. An open chunk closes on two
// consecutive silent frames or once it reaches the maximum length, and is
// emitted only if it meets the minimum length. Emitted spans extend OverlapMS
// past the last voiced frame, clamped to the signal end, so trailing speech
// is not clipped.
//
// A fully silent signal yields no spans. The function is pure and safe for
// concurrent use.
func SegmentSignal(samples []float64, cfg SegmenterConfig) []Span {
	if len(samples) == 0 {
		return nil
	}

	frameLength := SamplesPerMS(cfg.SampleRate, cfg.FrameLengthMS)
	if frameLength < 1 {
		frameLength = 1
	}
	overlap := SamplesPerMS(cfg.SampleRate, cfg.OverlapMS)
	minLength := SamplesPerMS(cfg.SampleRate, AdjustToFrameLength(cfg.MinChunkLengthMS, cfg.FrameLengthMS))
	maxLength := SamplesPerMS(cfg.SampleRate, AdjustToFrameLength(cfg.MaxChunkLengthMS, cfg.FrameLengthMS))

	// Five threshold segments across the recording; a short signal falls
	// back to a single segment covering whatever samples exist.
	segmentLength := len(samples) / 5
	if segmentLength < 1 {
		segmentLength = len(samples)
	}

	energyThresholds, zcrThresholds := computeDynamicThresholds(samples, frameLength, segmentLength)

	var spans []Span
	currentStart := -1
	lastValidEnd := 0
	previousFrameSilent := false

	for i := 0; i < len(samples); i += frameLength {
		segmentIndex := i / segmentLength
		if segmentIndex > len(energyThresholds)-1 {
			segmentIndex = len(energyThresholds) - 1
		}

		frameEnd := i + frameLength
		if frameEnd > len(samples) {
			frameEnd = len(samples)
		}
		frame := samples[i:frameEnd]

		isSilent := frameEnergy(frame) <= energyThresholds[segmentIndex] &&
			frameZCR(frame) <= zcrThresholds[segmentIndex]

		if currentStart < 0 && !isSilent {
			currentStart = i
			lastValidEnd = i + frameLength
		}

		if currentStart >= 0 {
			if isSilent && (previousFrameSilent || i+frameLength-currentStart >= maxLength) {
				if lastValidEnd-currentStart >= minLength {
					spans = append(spans, Span{currentStart, clampEnd(lastValidEnd+overlap, len(samples))})
					currentStart = -1
				}
			} else {
				lastValidEnd = i + frameLength
				if !isSilent && i+frameLength-currentStart >= maxLength {
					spans = append(spans, Span{currentStart, clampEnd(lastValidEnd+overlap, len(samples))})
					currentStart = -1
				}
			}
		}

		previousFrameSilent = isSilent
	}

	// Flush a still-open chunk at end of signal
	if currentStart >= 0 && lastValidEnd-currentStart >= minLength {
		spans = append(spans, Span{currentStart, clampEnd(lastValidEnd+overlap, len(samples))})
	}

	return spans
}

func clampEnd(end, signalLength int) int {
	if end > signalLength {
		return signalLength
	}
	return end
}

// Resample converts a mono signal to the target sample rate using linear
// interpolation. It returns the input unchanged when the rates match.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	outLength := int(float64(len(samples)) / ratio)
	if outLength < 1 {
		outLength = 1
	}

	out := make([]float64, outLength)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}

	return out
}

// Duration returns the playing time in seconds of a sample count at rate
func Duration(numSamples, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(numSamples) / float64(sampleRate)
}
