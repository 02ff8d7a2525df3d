// Package format serializes fetched data collections by output format
// identifier. Unrecognized identifiers fall back to pretty-printed
// JSON.
package format

import (
	"encoding/json"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// Recognized output format identifiers.
const (
	JSON      = "json"       // pretty-printed (default and fallback)
	JSONColor = "json_color" // compact, client renders the tree view
	Spew      = "go_spew"    // deep debug dump
	Dump      = "go_dump"    // %#v representation
)

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true}

// Render serializes data according to the format identifier.
func Render(formatID string, data any) string {
	switch formatID {
	case JSONColor:
		return marshal(data, false)
	case Spew:
		return dumper.Sdump(data)
	case Dump:
		return fmt.Sprintf("%#v", data)
	default:
		return marshal(data, true)
	}
}

func marshal(data any, pretty bool) string {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(data, "", "    ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Sprintf("serialization failed: %v", err)
	}
	return string(out)
}
