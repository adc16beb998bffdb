package gdbox2d

import "github.com/google/uuid"

// RID is an opaque resource handle. The zero value is the invalid RID.
type RID string

func NewRID() RID {
	return RID(uuid.NewString())
}

func (r RID) IsValid() bool {
	return r != ""
}
