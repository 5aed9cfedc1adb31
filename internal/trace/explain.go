package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Explain renders an entry as a human-readable justification.
func Explain(e Entry) string {
	data := "{}"
	if len(e.Context) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, e.Context, "", "  "); err == nil {
			data = buf.String()
		} else {
			data = string(e.Context)
		}
	}
	return fmt.Sprintf("The %s agent took the action %q because: %s. This decision was made at %s based on the following data: %s",
		e.AgentID, e.Action, e.Reasoning, e.Timestamp.UTC().Format(time.RFC3339), data)
}
