package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Sentinel errors for the expected decode failure modes. All of them are
// fatal to the invocation; the pipeline never retries a decode.
var (
	ErrFileNotFound      = errors.New("audio file not found")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrCorrupted         = errors.New("audio file corrupted or unreadable")
)

// DecodeFile reads an audio file into a Buffer. WAV and MP3 are decoded
// natively; other extensions are rejected with ErrUnsupportedFormat.
func DecodeFile(path string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrCorrupted, path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}

	numChans := pcm.Format.NumChannels
	if numChans < 1 {
		return nil, fmt.Errorf("%w: %s: no channels", ErrCorrupted, path)
	}

	// Scale integer PCM to [-1, 1] by bit depth.
	scale := 1.0 / float64(int(1)<<(dec.BitDepth-1))
	frames := len(pcm.Data) / numChans

	buf := &Buffer{
		SampleRate: pcm.Format.SampleRate,
		Channels:   make([][]float64, numChans),
	}
	for c := 0; c < numChans; c++ {
		ch := make([]float64, frames)
		for i := 0; i < frames; i++ {
			ch[i] = float64(pcm.Data[i*numChans+c]) * scale
		}
		buf.Channels[c] = ch
	}
	return buf, nil
}

func decodeMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}

	// go-mp3 always emits 16-bit little-endian stereo frames.
	frames := len(raw) / 4
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = pcm16ToFloat(raw[i*4:])
		right[i] = pcm16ToFloat(raw[i*4+2:])
	}
	return &Buffer{
		SampleRate: dec.SampleRate(),
		Channels:   [][]float64{left, right},
	}, nil
}

// pcm16ToFloat converts one little-endian 16-bit sample to [-1, 1),
// dividing by 32768 so a full-scale negative sample lands exactly on -1.
func pcm16ToFloat(raw []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(raw))) / 32768.0
}
