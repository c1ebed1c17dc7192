package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"clipvault/internal/config"
	"clipvault/internal/infrastructure/metrics"
	"clipvault/internal/utils/platformerrors"
)

// pipeWaitDelay bounds how long Wait may linger on the stdio pipes once the
// process has been killed or has exited.
const pipeWaitDelay = 2 * time.Second

// FFmpeg invokes the ffmpeg binary with a fixed output profile: width capped
// at 1280 preserving aspect ratio, H.264 video, AAC audio, mp4 container.
// Arguments are always passed as a discrete vector; the input and output
// paths never travel through a shell.
type FFmpeg struct {
	binary  string
	timeout time.Duration
	log     zerolog.Logger
}

func NewFFmpeg(cfg *config.Config, log zerolog.Logger) *FFmpeg {
	return &FFmpeg{
		binary:  cfg.FFmpegPath,
		timeout: cfg.TranscodeTimeout,
		log:     log.With().Str("component", "ffmpeg").Logger(),
	}
}

// Args returns the fixed argument vector for one transcode run.
func Args(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vf", "scale='min(1280,iw)':-2",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
}

// Transcode runs ffmpeg and waits for it to finish. Non-zero exit, spawn
// failure, and hitting the wall-clock timeout all surface as processing
// errors carrying the tool's stderr.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	runCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, f.binary, Args(inputPath, outputPath)...)
	// After the deadline kill, Wait would still block on the stderr pipe as
	// long as any child the tool spawned keeps it open. WaitDelay makes Wait
	// abandon the pipe shortly after the kill.
	cmd.WaitDelay = pipeWaitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		metrics.RecordTranscode("error", duration.Seconds())
		diagnostic := stderr.String()
		message := "ffmpeg failed"
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			message = fmt.Sprintf("ffmpeg exceeded the %s transcode timeout and was killed", f.timeout)
		} else if exitErr := new(exec.ExitError); errors.As(err, &exitErr) {
			message = fmt.Sprintf("ffmpeg exited with code %d", exitErr.ExitCode())
		}
		f.log.Error().Err(err).Str("input", inputPath).Dur("duration", duration).Msg(message)
		return platformerrors.NewErrorWithDetail(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeProcessing, message, err, diagnostic)
	}

	metrics.RecordTranscode("success", duration.Seconds())
	f.log.Info().Str("input", inputPath).Str("output", outputPath).
		Dur("duration", duration).Msg("transcode finished")
	return nil
}
