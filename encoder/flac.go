package encoder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// WriteFLAC encodes mono samples as a FLAC stream, BlockSize samples per
// frame with the encoder choosing the predictor for each frame.
func WriteFLAC(w io.Writer, samples []int16, sampleRate int) error {
	enc, err := flac.NewEncoder(w, &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	block := make([]int32, BlockSize)
	for off := 0; off < len(samples); off += BlockSize {
		chunk := samples[off:min(off+BlockSize, len(samples))]
		block = block[:len(chunk)]
		for i, s := range chunk {
			block[i] = int32(s)
		}
		f := &frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(len(chunk)),
				SampleRate:    uint32(sampleRate),
				Channels:      frame.ChannelsMono,
				BitsPerSample: BitsPerSample,
			},
			Subframes: []*frame.Subframe{{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   block,
				NSamples:  len(chunk),
			}},
		}
		if err := enc.WriteFrame(f); err != nil {
			return fmt.Errorf("writing flac frame at sample %d: %w", off, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing flac: %w", err)
	}
	return nil
}

// WriteFLACFile writes the stream to a temporary file next to path and
// renames it into place, so a partial archive is never left behind. The
// stream is encoded in memory first: the flac encoder closes any writer
// that is also an io.Closer.
func WriteFLACFile(path string, samples []int16, sampleRate int) error {
	var buf bytes.Buffer
	if err := WriteFLAC(&buf, samples, sampleRate); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".voiceclip-*.flac")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
