// Package bids converts study participant identifiers to the identifiers
// used in BIDS directory layouts.
package bids

import "strings"

const (
	SubjectPrefix = "sub-"
	SessionPrefix = "ses-"
)

// ParticipantToDicomID strips everything but letters and digits from a
// participant ID.
func ParticipantToDicomID(participantID string) string {
	var b strings.Builder
	for _, r := range participantID {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DicomIDToBidsID prefixes a DICOM ID with "sub-" unless it already has it.
func DicomIDToBidsID(dicomID string) string {
	if strings.HasPrefix(dicomID, SubjectPrefix) {
		return dicomID
	}
	return SubjectPrefix + dicomID
}

// ParticipantToBidsID converts a participant ID to a BIDS subject ID.
func ParticipantToBidsID(participantID string) string {
	return DicomIDToBidsID(ParticipantToDicomID(participantID))
}

// SessionToBids prefixes a session or visit label with "ses-" unless it
// already has it.
func SessionToBids(session string) string {
	if strings.HasPrefix(session, SessionPrefix) {
		return session
	}
	return SessionPrefix + session
}
