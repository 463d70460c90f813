// Package llmjson parses loose JSON returned by an LLM completion,
// repairing it with kaptinlin/jsonrepair on the first syntax error
// before giving up. Grounded on the teacher repo pack's
// haivivi-giztoy genx.unmarshalJSON helper, which wraps
// encoding/json.Unmarshal the same way.
package llmjson

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// Unmarshal parses data into v, repairing malformed JSON once on a
// syntax error before retrying. A second failure after repair is
// returned to the caller, who must treat it as the extraction
// pipeline's documented safe default (no-op for extraction, "replace"
// for arbitration) rather than propagating.
func Unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return err
	}
	return json.Unmarshal([]byte(fixed), v)
}
