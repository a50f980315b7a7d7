package stations

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/Vovarama1992/go-utils/logger"
)

type SourceKind int

const (
	SourceAmbiguous SourceKind = iota
	SourceDirect
	SourceExternalTool
)

func (k SourceKind) String() string {
	switch k {
	case SourceDirect:
		return "direct"
	case SourceExternalTool:
		return "external_tool"
	default:
		return "ambiguous"
	}
}

var DefaultDirectExtensions = []string{"mp3", "m4a", "aac", "wav", "ogg", "flac", "webm"}

var DefaultExternalToolHosts = []string{
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"facebook.com",
	"fb.watch",
	"twitter.com",
	"x.com",
	"vimeo.com",
	"twitch.tv",
	"soundcloud.com",
	"dailymotion.com",
	"reddit.com",
}

type S1ClassifyURL struct {
	extensions map[string]struct{}
	hosts      []string
	log        *logger.ZapLogger
}

func NewS1ClassifyURL(extensions, hosts []string, log *logger.ZapLogger) *S1ClassifyURL {
	s := &S1ClassifyURL{
		extensions: make(map[string]struct{}),
		hosts:      normalizeList(hosts, DefaultExternalToolHosts, "."),
		log:        log,
	}
	for _, ext := range normalizeList(extensions, DefaultDirectExtensions, ".") {
		s.extensions[ext] = struct{}{}
	}
	return s
}

// normalizeList lowercases and trims items, falling back to def when
// nothing usable is left.
func normalizeList(items, def []string, cutset string) []string {
	var out []string
	for _, it := range items {
		it = strings.ToLower(strings.Trim(strings.TrimSpace(it), cutset))
		if it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 && def != nil {
		return normalizeList(def, nil, cutset)
	}
	return out
}

// Run classifies rawURL; the first matching rule wins.
func (s *S1ClassifyURL) Run(rawURL string) SourceKind {
	kind := s.classify(rawURL)

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S1][CLASSIFY]",
		Fields:  map[string]any{"url": trim(rawURL, 180), "kind": kind.String()},
	})
	return kind
}

func (s *S1ClassifyURL) classify(rawURL string) SourceKind {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return SourceAmbiguous
	}

	// query string не участвует: url.Parse уже отделил его от Path
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if _, ok := s.extensions[ext]; ok && ext != "" {
		return SourceDirect
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range s.hosts {
		if hostContains(host, h) {
			return SourceExternalTool
		}
	}

	return SourceAmbiguous
}

// hostContains reports whether domain appears in host on label boundaries,
// so "x.com" matches "mobile.x.com" but not "dropbox.com".
func hostContains(host, domain string) bool {
	if host == "" {
		return false
	}
	return strings.Contains("."+host+".", "."+domain+".")
}

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// trimTail keeps the end of s, where tools print the actual error.
func trimTail(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	start := len(s) - max
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "…" + s[start:]
}
