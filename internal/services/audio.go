package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// AudioResult is the outcome of narrating one slide set. AudioFiles is
// index-aligned with the slides; a nil entry marks a slide whose
// narration failed or had no transcript.
type AudioResult struct {
	AudioFiles      []*string
	TranscriptFiles []string
	Synthesized     int
	Skipped         int
}

// AudioSynthesizer narrates slide transcripts to per-slide MP3 files.
// Item failures are absorbed; the stage itself only fails on context
// cancellation.
type AudioSynthesizer interface {
	SynthesizeCourse(ctx context.Context, slides []*types.SlideContent, req types.GenerationRequest, audioDir, transcriptDir string, onProgress func(done, total int)) (*AudioResult, error)
}

type audioSynthesizer struct {
	log *logger.Logger
	ai  OpenAIClient
}

func NewAudioSynthesizer(log *logger.Logger, ai OpenAIClient) AudioSynthesizer {
	return &audioSynthesizer{
		log: log.With("service", "AudioSynthesizer"),
		ai:  ai,
	}
}

func (a *audioSynthesizer) SynthesizeCourse(ctx context.Context, slides []*types.SlideContent, req types.GenerationRequest, audioDir, transcriptDir string, onProgress func(done, total int)) (*AudioResult, error) {
	total := len(slides)
	result := &AudioResult{
		AudioFiles:      make([]*string, total),
		TranscriptFiles: make([]string, 0, total),
	}

	voice := req.Voice
	if voice == "" {
		voice = "alloy"
	}

	for i, slide := range slides {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		num := i + 1
		if slide == nil || strings.TrimSpace(slide.Transcript) == "" {
			a.log.Debug("No transcript; skipping narration", "slide", num)
			result.Skipped++
			if onProgress != nil {
				onProgress(num, total)
			}
			continue
		}

		transcriptPath := filepath.Join(transcriptDir, fmt.Sprintf("slide_%02d.txt", num))
		if err := os.WriteFile(transcriptPath, []byte(slide.Transcript), 0o644); err != nil {
			a.log.Warn("Failed to write transcript file", "slide", num, "error", err)
		} else {
			result.TranscriptFiles = append(result.TranscriptFiles, transcriptPath)
		}

		raw, err := a.ai.SynthesizeSpeech(ctx, slide.Transcript, voice, req.Speed)
		if err != nil {
			a.log.Warn("Narration failed; slide will have no audio", "slide", num, "error", err)
			result.Skipped++
			if onProgress != nil {
				onProgress(num, total)
			}
			continue
		}

		audioPath := filepath.Join(audioDir, fmt.Sprintf("slide_%02d.mp3", num))
		if err := os.WriteFile(audioPath, raw, 0o644); err != nil {
			a.log.Warn("Failed to write audio file", "slide", num, "error", err)
			result.Skipped++
		} else {
			result.AudioFiles[i] = &audioPath
			result.Synthesized++
		}

		if onProgress != nil {
			onProgress(num, total)
		}
	}

	a.log.Info("Audio narration finished", "synthesized", result.Synthesized, "skipped", result.Skipped)
	return result, nil
}
