package domain

// Track is a single playable entry in a guild queue.
// Tracks carry no identity of their own: two tracks with identical fields
// are still independent queue entries.
type Track struct {
	AudioURL string
	Title    string
}

// NewTrack creates a Track. An empty title is replaced with "Untitled".
func NewTrack(audioURL, title string) Track {
	if title == "" {
		title = "Untitled"
	}
	return Track{
		AudioURL: audioURL,
		Title:    title,
	}
}
