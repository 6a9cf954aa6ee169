package emit

import (
	"encoding/json"
	"math"
	"strconv"
)

type literalJSON Literal

type literalWire struct {
	literalJSON
	// NaN and the infinities, which JSON numbers cannot express.
	Special string `json:",omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l Literal) MarshalJSON() ([]byte, error) {
	w := literalWire{literalJSON: literalJSON(l)}
	if math.IsNaN(l.Num) || math.IsInf(l.Num, 0) {
		w.Special = strconv.FormatFloat(l.Num, 'g', -1, 64)
		w.Num = 0
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Literal) UnmarshalJSON(b []byte) error {
	var w literalWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*l = Literal(w.literalJSON)
	if w.Special != "" {
		f, err := strconv.ParseFloat(w.Special, 64)
		if err != nil {
			return err
		}
		l.Num = f
	}
	return nil
}
