package riot

import "strings"

// platforms maps the short region names users type to platform routing values
var platforms = map[string]string{
	"euw":  "euw1",
	"eune": "eun1",
	"na":   "na1",
	"kr":   "kr",
	"jp":   "jp1",
	"br":   "br1",
	"lan":  "la1",
	"las":  "la2",
	"oce":  "oc1",
	"tr":   "tr1",
	"ru":   "ru",
}

// regional maps platform routing values to the regional cluster
var regional = map[string]string{
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"oc1":  "americas",
	"kr":   "asia",
	"jp1":  "asia",
}

// Regions lists the accepted short region names in display order
var Regions = []string{"euw", "eune", "na", "kr", "jp", "br", "lan", "las", "oce", "tr", "ru"}

// Platform resolves a short region name (e.g. "euw") to its platform value.
// The boolean is false for unknown regions.
func Platform(region string) (string, bool) {
	p, ok := platforms[strings.ToLower(strings.TrimSpace(region))]
	return p, ok
}

// RegionalHost returns the regional routing cluster for a platform,
// defaulting to europe.
func RegionalHost(platform string) string {
	if r, ok := regional[platform]; ok {
		return r
	}
	return "europe"
}

// ShortRegion turns a platform value back into the short name users know
func ShortRegion(platform string) string {
	for short, p := range platforms {
		if p == platform {
			return short
		}
	}
	return platform
}
