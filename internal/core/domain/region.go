package domain

import "strings"

// regionSuffixes are the administrative suffix words that carry no
// distinguishing information in Russian region names.
var regionSuffixes = []string{"край", "область", "округ", "республика"}

// DisambiguateRegion normalises a free-text region name into the token used
// for substring matching against carrier location directories: when one of
// the suffix words is present the leading token is kept, and the result is
// lower-cased. "Московская область" becomes "московская"; a plain city name
// like "Москва" passes through unchanged beyond case folding.
func DisambiguateRegion(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	for _, suffix := range regionSuffixes {
		if strings.Contains(region, suffix) {
			if fields := strings.Fields(region); len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return region
}
