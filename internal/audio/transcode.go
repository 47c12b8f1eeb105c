// Package audio converts audio files into the mono PCM form the speech
// models expect, and captures microphone audio.
package audio

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Transcoder converts audio containers to mono PCM WAV with ffmpeg.
type Transcoder struct {
	FFmpegPath string
	SampleRate int
}

// NewTranscoder returns a Transcoder using the given ffmpeg binary and
// output sample rate.
func NewTranscoder(ffmpegPath string, sampleRate int) *Transcoder {
	return &Transcoder{FFmpegPath: ffmpegPath, SampleRate: sampleRate}
}

// ToWAV transcodes input into workDir/<stem>.wav and returns that path.
// Video streams are dropped and audio is downmixed to one channel.
func (t *Transcoder) ToWAV(ctx context.Context, input, workDir string) (string, error) {
	bin, err := exec.LookPath(t.FFmpegPath)
	if err != nil {
		return "", fmt.Errorf("audio: ffmpeg not found (%s): %w", t.FFmpegPath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	out := filepath.Join(workDir, stem+".wav")

	cmd := exec.CommandContext(ctx, bin, t.args(input, out)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("audio: ffmpeg transcode %s: %w\n%s", input, err, tail(output, 2000))
	}
	return out, nil
}

func (t *Transcoder) args(input, output string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(t.SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output,
	}
}

// tail returns at most the last n bytes of b as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
