package cue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gopkg.in/hraban/opus.v2"
)

const (
	// Ogg Opus always decodes at 48 kHz; cue clips are rendered binaural.
	opusSampleRate = 48000
	opusChannels   = 2

	// 120 ms at 48 kHz, the largest Opus frame.
	opusFrameSamples = 5760
)

// LoadFromFile decodes a .wav or .opus clip. The cue id is taken from the
// file name without extension.
func LoadFromFile(path string) (*Clip, error) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	id := ID(strings.TrimSuffix(base, filepath.Ext(base)))

	if _, _, err := ParseID(id); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	var clip *Clip
	switch ext {
	case ".wav":
		clip, err = decodeWAV(f)
	case ".opus", ".ogg":
		clip, err = decodeOpus(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", base, err)
	}

	clip.ID = id
	clip.Source = path
	return clip, nil
}

// LoadFromDirectory loads every clip in dir named after a cue id. Files with
// other names or extensions are skipped.
func LoadFromDirectory(dir string) ([]*Clip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cue directory: %w", err)
	}

	var clips []*Clip
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".wav", ".opus", ".ogg":
		default:
			continue
		}
		if _, _, err := ParseID(ID(strings.TrimSuffix(name, filepath.Ext(name)))); err != nil {
			continue
		}

		clip, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		clips = append(clips, clip)
	}

	return clips, nil
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidClip
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClip, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, ErrInvalidClip
	}

	return &Clip{
		Samples:    toPCM16(buf),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// toPCM16 rescales integer samples of any bit depth to 16 bits.
func toPCM16(buf *audio.IntBuffer) []int16 {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case depth == 8:
			out[i] = int16((v - 128) << 8)
		case depth > 16:
			out[i] = int16(v >> (depth - 16))
		default:
			out[i] = int16(v)
		}
	}
	return out
}

func decodeOpus(r io.Reader) (*Clip, error) {
	s, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClip, err)
	}
	defer s.Close()

	frame := make([]int16, opusFrameSamples*opusChannels)
	var samples []int16
	for {
		n, err := s.Read(frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidClip, err)
		}
		samples = append(samples, frame[:n*opusChannels]...)
	}

	if len(samples) == 0 {
		return nil, ErrInvalidClip
	}

	return &Clip{
		Samples:    samples,
		SampleRate: opusSampleRate,
		Channels:   opusChannels,
	}, nil
}

// WriteWAV encodes a clip as 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, clip *Clip) error {
	enc := wav.NewEncoder(w, clip.SampleRate, 16, clip.Channels, 1)

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: clip.Channels, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}
