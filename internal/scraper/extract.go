package scraper

import (
	"regexp"
	"strings"
)

var videoPathRe = regexp.MustCompile(`/video/(.+)\?`)

// ExtractVideoPath finds the anchor belonging to playID and pulls the video
// path out of its href. Returns false when no anchor matches.
func ExtractVideoPath(hrefs []string, playID string) (string, bool) {
	for _, href := range hrefs {
		if !strings.Contains(href, playID) {
			continue
		}
		if m := videoPathRe.FindStringSubmatch(href); m != nil {
			return m[1], true
		}
	}
	return "", false
}
