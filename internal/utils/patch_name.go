package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxGeneratedPatchNameLength caps names derived from commit messages
const MaxGeneratedPatchNameLength = 30

var (
	// PatchNameReplaceRegex matches characters that are not used in generated patch names
	PatchNameReplaceRegex = regexp.MustCompile(`[^-_a-z0-9]+`)

	conventionalPrefixRegex = regexp.MustCompile(`^(feat|fix|chore|docs|style|refactor|perf|test|build|ci)(\([^)]*\))?!?:\s*`)
	hyphenRegex             = regexp.MustCompile(`-+`)
)

// SanitizePatchName turns arbitrary text into a patch name: lower case,
// runs of other characters collapsed into single hyphens.
func SanitizePatchName(name string) string {
	name = strings.ToLower(name)
	name = PatchNameReplaceRegex.ReplaceAllString(name, "-")
	name = hyphenRegex.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")

	if len(name) > MaxGeneratedPatchNameLength {
		name = name[:MaxGeneratedPatchNameLength]
		name = strings.TrimRight(name, "-_")
	}
	return name
}

// PatchNameFromMessage derives a patch name from the subject line of a
// commit message
func PatchNameFromMessage(message string) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	subject = conventionalPrefixRegex.ReplaceAllString(strings.TrimSpace(subject), "")
	return SanitizePatchName(subject)
}

// UniquePatchName appends -2, -3, ... to name until taken reports false
func UniquePatchName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
