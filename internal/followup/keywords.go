package followup

import "strings"

var (
	affirmTokens = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
		"resolved": true, "fixed": true, "done": true, "confirmed": true,
		"solved": true, "ok": true, "okay": true,
	}
	denyTokens = map[string]bool{
		"no": true, "n": true, "nope": true, "not": true, "nothing": true,
		"unresolved": true, "still": true, "reopen": true, "persists": true,
		"broken": true, "worse": true,
	}
)

// InterpretKeywords decides a confirmation reply from its tokens alone. A
// reply matching both vocabularies ("no wait, yes") or neither stays
// undecided. Pure function of the text, usable without the gateway.
func InterpretKeywords(text string) (confirmed, decisive bool) {
	var affirms, denies bool
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:'\"")
		if affirmTokens[token] {
			affirms = true
		}
		if denyTokens[token] {
			denies = true
		}
	}

	if affirms == denies {
		return false, false
	}
	return affirms, true
}
