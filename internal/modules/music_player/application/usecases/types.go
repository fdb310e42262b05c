package usecases

import (
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// LoopMode is an alias for domain.LoopMode.
type LoopMode = domain.LoopMode

// Platform is an alias for domain.Platform.
type Platform = domain.Platform

// Loop modes re-exported for presentation.
const (
	LoopModeNone = domain.LoopModeNone
	LoopModeOne  = domain.LoopModeOne
	LoopModeAll  = domain.LoopModeAll
)

// ParsePlatform converts a string to a Platform.
func ParsePlatform(s string) Platform {
	return domain.ParsePlatform(s)
}
