package deployments

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns         = regexp.MustCompile(`-{2,}`)
)

// SanitizeAppName lower-cases name, replaces every character outside
// [a-z0-9-] with a dash and collapses runs of dashes. Leading and trailing
// dashes are dropped since the provider rejects them.
func SanitizeAppName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = invalidNameChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// GenerateAppName returns "{botType}md-" followed by six random hex digits.
func GenerateAppName(botType string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return fmt.Sprintf("%smd-%s", SanitizeAppName(botType), hex.EncodeToString(b)), nil
}

func resolveAppName(requested, botType string) (string, error) {
	if name := SanitizeAppName(requested); name != "" {
		return name, nil
	}
	return GenerateAppName(botType)
}
