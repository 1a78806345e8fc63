package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

type verboseTranscription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe implements llm.SpeechToText over /audio/transcriptions. Files over
// STTMaxBytes fail with common.ErrFileTooLarge before anything is uploaded.
func (c *Client) Transcribe(ctx context.Context, audioPath, languageHint string) (llm.STTResult, error) {
	fi, err := os.Stat(audioPath)
	if err != nil {
		return llm.STTResult{}, fmt.Errorf("%w: %s", common.ErrSourceMissing, audioPath)
	}
	if fi.Size() > c.cfg.STTMaxBytes {
		return llm.STTResult{}, fmt.Errorf("%w: %s is %d bytes, limit %d",
			common.ErrFileTooLarge, filepath.Base(audioPath), fi.Size(), c.cfg.STTMaxBytes)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return llm.STTResult{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return llm.STTResult{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return llm.STTResult{}, fmt.Errorf("read audio: %w", err)
	}
	fields := map[string]string{
		"model":           c.cfg.STTModel,
		"response_format": "verbose_json",
		"temperature":     "0",
		"prompt":          llm.STTPrompt,
	}
	if languageHint != "" {
		fields["language"] = languageHint
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return llm.STTResult{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return llm.STTResult{}, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return llm.STTResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	raw, err := llm.Send(c.http, req, c.logger)
	if err != nil {
		c.logger.Error("llm.stt.http_error", "file", filepath.Base(audioPath), "error", err)
		return llm.STTResult{}, err
	}

	var vt verboseTranscription
	if err := json.Unmarshal(raw, &vt); err != nil {
		return llm.STTResult{}, fmt.Errorf("decode transcription: %w", err)
	}
	res := llm.STTResult{Text: vt.Text, Language: vt.Language}
	if res.Language == "" {
		res.Language = languageHint
	}
	for _, s := range vt.Segments {
		res.Segments = append(res.Segments, entity.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	c.logger.Info("llm.stt.ok",
		"file", filepath.Base(audioPath),
		"bytes", fi.Size(),
		"segments", len(res.Segments),
		"language", res.Language,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
