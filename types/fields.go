package types

import (
	"fmt"
	"strings"
)

// DisplayField selects which solver field a presenter shows.
type DisplayField uint8

const (
	FIELD_Dye DisplayField = iota
	FIELD_Velocity
	FIELD_Pressure
	FIELD_Curl
	FIELD_Divergence
)

var (
	DisplayFieldNames = map[string]DisplayField{
		"dye":        FIELD_Dye,
		"density":    FIELD_Dye,
		"velocity":   FIELD_Velocity,
		"speed":      FIELD_Velocity,
		"pressure":   FIELD_Pressure,
		"curl":       FIELD_Curl,
		"vorticity":  FIELD_Curl,
		"divergence": FIELD_Divergence,
	}
	DisplayFieldPrintNames = []string{"Dye", "Velocity Magnitude", "Pressure", "Curl", "Divergence"}
)

func (df DisplayField) Print() (txt string) {
	txt = DisplayFieldPrintNames[df]
	return
}

// Signed fields are shown with a diverging colour map centred on zero.
func (df DisplayField) Signed() bool {
	return df == FIELD_Pressure || df == FIELD_Curl || df == FIELD_Divergence
}

func NewDisplayField(label string) (df DisplayField) {
	var (
		err error
	)
	if df, err = ParseDisplayField(label); err != nil {
		panic(err)
	}
	return
}

func ParseDisplayField(label string) (df DisplayField, err error) {
	var (
		ok bool
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if df, ok = DisplayFieldNames[label]; !ok {
		err = fmt.Errorf("unable to display field named %s", label)
	}
	return
}
