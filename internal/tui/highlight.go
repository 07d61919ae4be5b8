package tui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// highlightJSON красиво печатает непрозрачный ответ (MergeResult и т.п.)
// и раскрашивает его. Если раскраска не удалась, возвращает отформатированный текст.
func highlightJSON(raw []byte, color bool) string {
	if len(raw) == 0 {
		return ""
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	if !color {
		return pretty.String()
	}

	var out strings.Builder
	if err := quick.Highlight(&out, pretty.String(), "json", "terminal256", "monokai"); err != nil {
		return pretty.String()
	}
	return out.String()
}
