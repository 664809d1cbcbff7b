package display

import (
	"encoding/json"
	"os"

	"golang.org/x/term"
)

// MarshalJSON marshals with pretty formatting when stdout is a terminal and
// compact formatting when output is piped or redirected.
func MarshalJSON(v interface{}) ([]byte, error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
