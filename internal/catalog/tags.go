package catalog

import (
	"regexp"
	"sort"
	"strings"
)

var (
	bracketPattern  = regexp.MustCompile(`【([^】]+)】`)
	tagSplitPattern = regexp.MustCompile(`[、，/\s\p{Zs}]+`)
)

const tagTrimSet = "（）。()"

// ExtractTags returns the sorted set of series plus every keyword found in
// 【...】 segments of infoText.
func ExtractTags(infoText, series string) []string {
	set := map[string]struct{}{series: {}}

	for _, m := range bracketPattern.FindAllStringSubmatch(infoText, -1) {
		for _, token := range tagSplitPattern.Split(m[1], -1) {
			token = strings.Trim(token, tagTrimSet)
			if token != "" {
				set[token] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
