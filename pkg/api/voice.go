package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"agrilink/pkg/fetch"
	"agrilink/pkg/models"
	"agrilink/pkg/retry"
)

const voiceCommandPath = "/voice-command/"

// VoiceCommand is a recorded voice query to transcribe and answer.
type VoiceCommand struct {
	FarmerID    string
	Language    string
	FileName    string
	ContentType string
	Audio       []byte
}

// SendVoiceCommand uploads the recording as multipart form data. The backend
// rate limits transcription, so HTTP 429 is retried per the service's retry
// policy; if it persists the call fails with ErrServiceBusy.
func (s *Service) SendVoiceCommand(ctx context.Context, cmd VoiceCommand) (*models.VoiceCommandResult, error) {
	if len(cmd.Audio) == 0 {
		return nil, fmt.Errorf("%w: audio is required", ErrInvalidArgument)
	}
	if cmd.FileName == "" {
		cmd.FileName = "voice.m4a"
	}

	fields := map[string]string{}
	if cmd.FarmerID != "" {
		fields["farmer_id"] = cmd.FarmerID
	}
	if cmd.Language != "" {
		fields["language"] = cmd.Language
	}
	file := fetch.FormFile{
		Field:       "audio",
		Name:        cmd.FileName,
		ContentType: cmd.ContentType,
		Content:     cmd.Audio,
	}

	resp, err := retry.Do(ctx, s.retry, func(ctx context.Context) (*http.Response, error) {
		// A multipart body is consumed by each attempt, so rebuild it.
		body, err := fetch.NewMultipartBody(fields, file)
		if err != nil {
			return nil, err
		}
		return s.client.Do(ctx, voiceCommandPath, &fetch.Options{Method: http.MethodPost, Body: body})
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			s.logger.Warn().Err(err).Msg("Voice service still rate limited")
			return nil, fmt.Errorf("%w: %w", ErrServiceBusy, err)
		}
		return nil, fmt.Errorf("failed to send voice command: %w", err)
	}

	var result models.VoiceCommandResult
	if err := fetch.DecodeJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to send voice command: %w", err)
	}
	return &result, nil
}
