package config

import (
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

const (
	BackendFasterWhisper = "faster-whisper"
	BackendOpenAI        = "openai"
)

type Config struct {
	Port            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	ModelBackend       string
	WhisperModel       string
	WhisperDevice      string
	WhisperComputeType string
	WhisperPython      string
	WhisperStartup     time.Duration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	DefaultLanguage    string

	DirectFetchTimeout    time.Duration
	DirectAudioExtensions []string
	ExternalToolHosts     []string

	YtdlpPath       string
	YtdlpCookieFile string
	YtdlpTimeout    time.Duration

	WorkspaceRoot string
	DatabaseURL   string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            env.Str("PORT", "8080"),
		CORSOrigins:     env.List("CORS_ORIGINS", "*"),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		ModelBackend:       strings.ToLower(env.Str("MODEL_BACKEND", BackendFasterWhisper)),
		WhisperModel:       env.Str("WHISPER_MODEL", "base"),
		WhisperDevice:      env.Str("WHISPER_DEVICE", "cpu"),
		WhisperComputeType: env.Str("WHISPER_COMPUTE_TYPE", "int8"),
		WhisperPython:      env.Str("WHISPER_PYTHON", "python3"),
		WhisperStartup:     env.Duration("WHISPER_STARTUP_TIMEOUT", 10*time.Minute),
		OpenAIAPIKey:       env.Str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      env.Str("OPENAI_BASE_URL", ""),
		DefaultLanguage:    env.Str("DEFAULT_LANGUAGE", ""),

		DirectFetchTimeout:    env.Duration("DIRECT_FETCH_TIMEOUT", 60*time.Second),
		DirectAudioExtensions: env.List("DIRECT_AUDIO_EXTENSIONS", ""),
		ExternalToolHosts:     env.List("EXTERNAL_TOOL_HOSTS", ""),

		YtdlpPath:       env.Str("YTDLP_PATH", "yt-dlp"),
		YtdlpCookieFile: env.Str("YTDLP_COOKIES_FILE", ""),
		YtdlpTimeout:    env.Duration("YTDLP_TIMEOUT", 10*time.Minute),

		WorkspaceRoot: env.Str("WORKSPACE_ROOT", ""),
		DatabaseURL:   env.Str("DATABASE_URL", ""),
	}
}

// ModelLabel is the name reported by /health, e.g. "whisper-base".
func (c Config) ModelLabel() string {
	if c.ModelBackend == BackendOpenAI {
		return "openai-whisper-1"
	}
	return "whisper-" + c.WhisperModel
}
