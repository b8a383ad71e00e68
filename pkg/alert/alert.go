// Package alert plays an audible alarm when the water sensor trips.
package alert

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
	"github.com/youpy/go-wav"
)

const (
	playbackRate     = 44100
	playbackChannels = 2
)

// Alarm owns the audio output and a single alarm sound. Trigger is
// single-flight: a trigger while the alarm is sounding is dropped.
type Alarm struct {
	otoCtx    *oto.Context
	soundFile string
	playing   atomic.Bool
}

// New opens the audio device and validates the sound file. Devices without
// audio hardware fail here; the caller then runs without an audible alarm.
func New(soundFile string) (*Alarm, error) {
	if soundFile == "" {
		return nil, fmt.Errorf("no alarm sound configured")
	}
	if _, err := os.Stat(soundFile); err != nil {
		return nil, fmt.Errorf("alarm sound not readable: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   playbackRate,
		ChannelCount: playbackChannels,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	return &Alarm{otoCtx: otoCtx, soundFile: soundFile}, nil
}

// Trigger sounds the alarm on its own goroutine. It never blocks the
// caller and never overlaps a still-playing alarm.
func (a *Alarm) Trigger() {
	if !a.playing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer a.playing.Store(false)
		if err := a.play(); err != nil {
			slog.Error("alarm playback failed", "file", a.soundFile, "error", err)
		}
	}()
}

func (a *Alarm) play() error {
	fileData, err := os.ReadFile(a.soundFile)
	if err != nil {
		return fmt.Errorf("failed to read sound file: %w", err)
	}

	var pcmData []byte
	var sampleRate, channelCount int

	switch strings.ToLower(filepath.Ext(a.soundFile)) {
	case ".wav":
		wavReader := wav.NewReader(bytes.NewReader(fileData))
		format, err := wavReader.Format()
		if err != nil {
			return fmt.Errorf("failed to get wav format: %w", err)
		}
		wavReader = wav.NewReader(bytes.NewReader(fileData))
		pcmData, err = io.ReadAll(wavReader)
		if err != nil {
			return fmt.Errorf("failed to decode wav data: %w", err)
		}
		sampleRate = int(format.SampleRate)
		channelCount = int(format.NumChannels)

	case ".mp3":
		decoder, err := mp3.NewDecoder(bytes.NewReader(fileData))
		if err != nil {
			return fmt.Errorf("failed to create mp3 decoder: %w", err)
		}
		pcmData, err = io.ReadAll(decoder)
		if err != nil {
			return fmt.Errorf("failed to decode mp3 data: %w", err)
		}
		sampleRate = decoder.SampleRate()
		channelCount = 2

	default:
		return fmt.Errorf("unsupported alarm sound format %q", filepath.Ext(a.soundFile))
	}

	if sampleRate != playbackRate || channelCount != playbackChannels {
		pcmData = convertPCM(pcmData, sampleRate, channelCount, playbackRate, playbackChannels)
	}

	slog.Info("sounding water alarm", "file", a.soundFile)
	player := a.otoCtx.NewPlayer(bytes.NewReader(pcmData))
	defer player.Close()
	player.Play()
	for player.IsPlaying() {
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// convertPCM adapts 16-bit PCM to the playback rate and channel count.
// Mono is duplicated to stereo; rate changes use linear interpolation.
func convertPCM(pcmData []byte, fromRate, fromChannels, toRate, toChannels int) []byte {
	sampleCount := len(pcmData) / 2
	samples := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(pcmData[i*2 : i*2+2]))
	}

	if fromChannels == 1 && toChannels == 2 {
		stereo := make([]int16, len(samples)*2)
		for i, s := range samples {
			stereo[i*2] = s
			stereo[i*2+1] = s
		}
		samples = stereo
	}

	if fromRate != toRate {
		ratio := float64(toRate) / float64(fromRate)
		resampled := make([]int16, int(float64(len(samples))*ratio))
		for i := range resampled {
			srcPos := float64(i) / ratio
			srcIdx := int(srcPos)
			if srcIdx >= len(samples)-1 {
				resampled[i] = samples[len(samples)-1]
				continue
			}
			frac := srcPos - float64(srcIdx)
			s1 := float64(samples[srcIdx])
			s2 := float64(samples[srcIdx+1])
			resampled[i] = int16(s1 + (s2-s1)*frac)
		}
		samples = resampled
	}

	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}
