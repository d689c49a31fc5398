package gcp

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestInferSpeechEncoding(t *testing.T) {
	cases := []struct {
		mimeType string
		want     speechpb.RecognitionConfig_AudioEncoding
	}{
		{"audio/wav", speechpb.RecognitionConfig_LINEAR16},
		{"audio/flac", speechpb.RecognitionConfig_FLAC},
		{"audio/mp3", speechpb.RecognitionConfig_MP3},
		{"audio/mpeg; name=rec.mp3", speechpb.RecognitionConfig_MP3},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS},
		{"application/octet-stream", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
		{"", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
	}
	for _, c := range cases {
		if got := inferSpeechEncoding(c.mimeType); got != c.want {
			t.Fatalf("inferSpeechEncoding(%q) = %v, want %v", c.mimeType, got, c.want)
		}
	}
}
