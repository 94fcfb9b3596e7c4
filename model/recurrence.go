package model

import (
	"taskboard/recurrence"

	"go.mongodb.org/mongo-driver/bson"
)

// Recurrence is the persisted form of a recurrence rule. It is stored as the
// canonical snake_case document and read back from either spelling.
type Recurrence struct {
	recurrence.Rule
}

func NewRecurrence(rule recurrence.Rule) *Recurrence {
	return &Recurrence{Rule: rule}
}

func (r Recurrence) MarshalBSON() ([]byte, error) {
	return bson.Marshal(r.Rule.ToMap())
}

func (r *Recurrence) UnmarshalBSON(data []byte) error {
	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Rule = recurrence.FromMap(raw)
	return nil
}
