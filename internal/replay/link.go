package replay

import (
	"regexp"

	"catan-standings/internal/domain"
)

var (
	colonistReplayRegex = regexp.MustCompile(`colonist\.io/replay/([^? &/\\()\[\]\n]+)`)
	twoSheepReplayRegex = regexp.MustCompile(`twosheep\.io/replay/([^? &/\\()\[\]\n]+)`)
)

type Link struct {
	Site domain.Site
	Slug string
}

func (l Link) URL() string {
	return "https://" + string(l.Site) + "/replay/" + l.Slug
}

// ExtractLink finds the first replay link in a chat message. colonist.io
// links win over twosheep.io links, and the CK division only accepts colonist.io.
func ExtractLink(content string, division domain.Division) (Link, bool) {
	if m := colonistReplayRegex.FindStringSubmatch(content); m != nil {
		return Link{Site: domain.SiteColonist, Slug: m[1]}, true
	}
	if division == domain.CK {
		return Link{}, false
	}
	if m := twoSheepReplayRegex.FindStringSubmatch(content); m != nil {
		return Link{Site: domain.SiteTwoSheep, Slug: m[1]}, true
	}
	return Link{}, false
}
