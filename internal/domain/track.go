package domain

// Participant is the role a track belongs to.
type Participant string

const (
	ParticipantLocal Participant = "local"
	ParticipantBot   Participant = "bot"
)

// TrackKind is the slot a track occupies for a participant.
type TrackKind string

const (
	TrackAudio       TrackKind = "audio"
	TrackVideo       TrackKind = "video"
	TrackScreenAudio TrackKind = "screenAudio"
	TrackScreenVideo TrackKind = "screenVideo"
)
