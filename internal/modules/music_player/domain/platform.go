package domain

// Platform identifies the media platform a search is run against.
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
)

// searchFanOut is the number of candidates fetched by a shallow search.
const searchFanOut = "10"

// ParsePlatform converts a string to a Platform.
// Unknown values fall back to YouTube.
func ParsePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformSoundCloud:
		return PlatformSoundCloud
	default:
		return PlatformYouTube
	}
}

// SearchPrefix returns the resolver search prefix for the platform,
// e.g. "ytsearch10:".
func (p Platform) SearchPrefix() string {
	switch p {
	case PlatformSoundCloud:
		return "scsearch" + searchFanOut + ":"
	default:
		return "ytsearch" + searchFanOut + ":"
	}
}
