package casefile

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var (
	slugStripRegex    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRegex = regexp.MustCompile(`[\s_-]+`)
)

const (
	slugSuffixLen      = 6
	slugSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Slugify lowercases name, drops anything but word characters, spaces and dashes,
// and joins the words with single dashes.
func Slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = slugStripRegex.ReplaceAllString(s, "")
	s = slugCollapseRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateSlug returns Slugify(name) with a random base36 suffix ("jane-doe-k3x9q1").
func GenerateSlug(name string) string {
	suffix := randomSuffix()
	if base := Slugify(name); base != "" {
		return base + "-" + suffix
	}
	return suffix
}

func randomSuffix() string {
	b := make([]byte, slugSuffixLen)
	max := big.NewInt(int64(len(slugSuffixAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = slugSuffixAlphabet[n.Int64()]
	}
	return string(b)
}
