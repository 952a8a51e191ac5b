package patch

import "strings"

// UnwrapFencedJSON strips a surrounding ```json ... ``` (or bare ```...```)
// fence from s, returning the inner text trimmed of whitespace. Agent
// output routinely wraps a patch in a markdown code fence; this is a dev
// harness convenience for fixture authors pasting raw agent transcripts,
// never called from ValidatePatch or ApplyPatchToClip themselves. Input
// without a recognizable fence is returned with only its surrounding
// whitespace trimmed.
func UnwrapFencedJSON(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(trimmed[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			trimmed = trimmed[nl+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
