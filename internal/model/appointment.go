package model

// Appointment is the single persisted record: a patient holding one time slot
// on one calendar day. Name and phone are stored unmasked; masking happens at
// render time only.
type Appointment struct {
	ID          int64
	PatientName string
	Phone       string
	Date        string // YYYY-MM-DD
	Time        string // one of the configured slot labels
}
