package model

import (
	"encoding/json"
	"fmt"
)

// Rating is a normalized 0-5 rating. A listing without a rating stays
// explicitly unknown rather than being coerced to zero, so unrated
// products never outrank or underrank rated ones by accident.
type Rating struct {
	Value float64
	Known bool
}

// KnownRating builds a known rating.
func KnownRating(v float64) Rating {
	return Rating{Value: v, Known: true}
}

// UnknownRating builds an unknown rating.
func UnknownRating() Rating {
	return Rating{}
}

// Less orders ratings for ranking: higher known ratings first, unknown
// ratings after every known rating.
func (r Rating) Less(other Rating) bool {
	if r.Known != other.Known {
		return !r.Known
	}
	return r.Value < other.Value
}

func (r Rating) String() string {
	if !r.Known {
		return "unknown"
	}
	return fmt.Sprintf("%.1f", r.Value)
}

// MarshalJSON encodes unknown ratings as null.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Known {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as unknown.
func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Rating{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Rating{Value: v, Known: true}
	return nil
}
