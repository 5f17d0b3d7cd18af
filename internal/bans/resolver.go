// Package bans derives the current ban state of learners and teachers from
// their ban history.
package bans

import (
	"time"

	"github.com/kututorium/adminserve/internal/models"
)

// ActiveBan is the ban currently in force for one subject.
type ActiveBan struct {
	RecordID   int64     `json:"record_id"`
	Until      time.Time `json:"until,omitempty"`
	Indefinite bool      `json:"indefinite"`
}

// outranks reports whether b extends further than other.
func (b ActiveBan) outranks(other ActiveBan) bool {
	if other.Indefinite {
		return false
	}
	return b.Indefinite || b.Until.After(other.Until)
}

// Resolution maps a subject id (learner or teacher profile id) to its active
// ban. Subjects without an active ban are absent.
type Resolution map[int64]ActiveBan

// Lookup returns the active ban for a subject.
func (r Resolution) Lookup(subjectID int64) (ActiveBan, bool) {
	b, ok := r[subjectID]
	return b, ok
}

// Resolve folds records into the ban in force at now for every subject.
//
// A record is active when its start parses and is not after now, and its end
// is either missing (indefinite) or not before now. Records with an unusable
// subject id are ignored. When a subject has several active records the one
// reaching furthest wins; on equal ends the first one seen is kept.
func Resolve(records []models.BanRecord, now time.Time) Resolution {
	out := make(Resolution)
	for _, rec := range records {
		subject, ok := models.ParseID(rec.SubjectID)
		if !ok {
			continue
		}
		ban, ok := activeAt(rec, now)
		if !ok {
			continue
		}
		if cur, seen := out[subject]; !seen || ban.outranks(cur) {
			out[subject] = ban
		}
	}
	return out
}

func activeAt(rec models.BanRecord, now time.Time) (ActiveBan, bool) {
	start, ok := models.ParseTimestamp(rec.BanStart)
	if !ok || now.Before(start) {
		return ActiveBan{}, false
	}
	end, ok := models.ParseTimestamp(rec.BanEnd)
	if !ok {
		return ActiveBan{RecordID: rec.ID, Indefinite: true}, true
	}
	if now.After(end) {
		return ActiveBan{}, false
	}
	return ActiveBan{RecordID: rec.ID, Until: end}, true
}
