package copywriter

import "strings"

// leadIns start the throwaway lines models add despite the prompt, such as
// "Here is a description:".
var leadIns = []string{"Here", "Sure", "Certainly", "Description"}

// CleanResponse strips lead-in lines, a "Description:" label, surrounding
// quotes, and blank lines from a model response, joining what remains into
// one paragraph.
func CleanResponse(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isLeadIn(line) {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		kept = append(kept, line)
	}

	out := strings.Join(kept, " ")
	out = strings.Trim(out, "\"“”")
	return strings.TrimSpace(out)
}

func isLeadIn(line string) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	for _, p := range leadIns {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
