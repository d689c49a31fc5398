package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LOGQS/coursegen-backend/internal/clients/gcp"
)

type SpeechHandler struct {
	speech gcp.Speech // nil when transcription is not configured
}

func NewSpeechHandler(speech gcp.Speech) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

// POST /api/transcribe
// Accepts a multipart "audio" file and returns the recognized text, so
// a spoken prompt can seed a generation request.
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	if h.speech == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription not configured"})
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio file"})
		return
	}
	defer f.Close()

	// 25MB is plenty for a spoken prompt.
	raw, err := io.ReadAll(io.LimitReader(f, 25<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio file"})
		return
	}

	lang := c.DefaultQuery("language", "en-US")
	result, err := h.speech.TranscribeAudioBytes(c.Request.Context(), raw, fileHeader.Header.Get("Content-Type"), lang)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":       result.Text,
		"confidence": result.Confidence,
	})
}

// GET /api/voices
func (h *SpeechHandler) Voices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"voices": []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"},
	})
}
