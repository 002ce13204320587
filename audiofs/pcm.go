package audiofs

import (
	"fmt"
	"slices"
)

// PCMToInts appends the samples of the little endian PCM data src to dst.
// 8 bit samples are unsigned and kept as is (0..255); 16 bit samples are
// signed. A trailing partial sample is ignored.
func PCMToInts(src []byte, bitsPerSample int, dst []int) ([]int, error) {
	switch bitsPerSample {
	case 8:
		dst = slices.Grow(dst, len(src))
		for _, b := range src {
			dst = append(dst, int(b))
		}
	case 16:
		n := len(src) / 2
		dst = slices.Grow(dst, n)
		for i := 0; i < n; i++ {
			dst = append(dst, int(int16(src[i*2])|(int16(src[i*2+1])<<8)))
		}
	default:
		return dst, fmt.Errorf("%d bits per sample: %w", bitsPerSample, ErrInvalidFormat)
	}
	return dst, nil
}

// IntsToPCM appends src as little endian PCM samples to dst. Samples are
// truncated to the target width.
func IntsToPCM(src []int, bitsPerSample int, dst []byte) ([]byte, error) {
	switch bitsPerSample {
	case 8:
		dst = slices.Grow(dst, len(src))
		for _, s := range src {
			dst = append(dst, byte(s))
		}
	case 16:
		dst = slices.Grow(dst, len(src)*2)
		for _, s := range src {
			dst = append(dst, byte(s), byte(s>>8))
		}
	default:
		return dst, fmt.Errorf("%d bits per sample: %w", bitsPerSample, ErrInvalidFormat)
	}
	return dst, nil
}

// silence returns the byte value of a silent sample of the given format.
func silence(f SampleFormat) byte {
	if f.BitsPerSample() == 8 {
		return 0x80
	}
	return 0
}
