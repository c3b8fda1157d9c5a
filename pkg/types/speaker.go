// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SpeakerRole is the resolved role of a transcript speaker.
type SpeakerRole string

const (
	SpeakerModerator  SpeakerRole = "moderator"
	SpeakerAnalyst    SpeakerRole = "analyst"
	SpeakerManagement SpeakerRole = "management"
	SpeakerUnknown    SpeakerRole = "unknown"
)

// Speaker is a resolved identity attached to a transcript paragraph.
type Speaker struct {
	Name string      `json:"name" yaml:"name"`
	Role SpeakerRole `json:"role" yaml:"role"`
}
