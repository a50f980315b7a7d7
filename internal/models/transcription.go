package models

type AudioSource string

const (
	AudioSourceDirectURL    AudioSource = "direct_url"
	AudioSourceExternalTool AudioSource = "yt-dlp"
)

type TranscriptionRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"` // пусто = автоопределение
}

// ResolvedAudio lives inside the request workspace and is removed with it.
type ResolvedAudio struct {
	FilePath string
	Source   AudioSource
}

type TranscriptSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type TranscriptionResult struct {
	Text        string              `json:"text"`
	Language    string              `json:"language"`
	AudioSource AudioSource         `json:"audio_source"`
	Segments    []TranscriptSegment `json:"segments"`
}
