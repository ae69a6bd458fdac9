package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Creature is the hatched artifact derived from an egg and one care response.
//
// AudioURL is nil when speech synthesis failed; it serializes as JSON null.
// EggTraits and EggDescription are copies of the egg's Descriptors and
// Description taken at hatch time.
type Creature struct {
	ID               string        `json:"id"                gorm:"type:char(36);primaryKey"`
	Name             string        `json:"name"              gorm:"type:varchar(255);not null"`
	EggID            string        `json:"egg_id"            gorm:"type:char(36);not null;index:idx_creatures_egg"`
	ImageURL         string        `json:"image_url"         gorm:"type:varchar(255);not null"`
	SoundText        string        `json:"sound_text"        gorm:"type:varchar(64);not null"`
	SoundName        string        `json:"sound_name"        gorm:"type:varchar(80);not null"`
	VoiceDescription string        `json:"voice_description" gorm:"type:text"`
	AudioURL         *string       `json:"audio_url"         gorm:"type:varchar(255)"`
	CareResponses    CareResponses `json:"care_responses"    gorm:"serializer:json;type:text"`
	HatchedAt        time.Time     `json:"hatched_at"`
	EggTraits        []string      `json:"egg_traits"        gorm:"serializer:json;type:text"`
	EggDescription   string        `json:"egg_description"   gorm:"type:text"`
}

// TableName returns the database table name for Creature.
func (Creature) TableName() string { return "creatures" }

// CareEntry is a single (question id, answer) pair given during incubation.
type CareEntry struct {
	QuestionID string
	Answer     string
}

// CareResponses is an ordered question-id → answer mapping. It encodes as a
// JSON object and keeps the order the client sent, so "the first response"
// is well defined.
type CareResponses []CareEntry

// First returns the first entry, if any.
func (c CareResponses) First() (CareEntry, bool) {
	if len(c) == 0 {
		return CareEntry{}, false
	}
	return c[0], true
}

// MarshalJSON writes the entries as a JSON object in order.
func (c CareResponses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.QuestionID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Answer)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. Non-string values
// are kept as their raw JSON text; null becomes an empty answer.
func (c *CareResponses) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("care_responses must be a JSON object")
	}

	out := CareResponses{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, CareEntry{QuestionID: key, Answer: answerText(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

func answerText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}
