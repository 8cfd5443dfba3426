package util

import (
	"net/url"
	"strings"
)

// ExtractYouTubeID 从常见的 YouTube 链接形式中取出视频 ID，无法识别时返回空串
func ExtractYouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtu.be":
		return segments[0]
	case "youtube.com", "youtube-nocookie.com":
		if segments[0] == "watch" {
			return u.Query().Get("v")
		}
		if len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "shorts") {
			return segments[1]
		}
	}
	return ""
}
