package devserver

import "regexp"

var (
	scriptTag = []byte(`<script src="` + ScriptPath + `"></script>`)
	bodyEnd   = regexp.MustCompile(`(?i)</body\s*>`)
)

// InjectScript inserts the live reload script tag before the last </body>,
// or appends it when the page has none.
func InjectScript(page []byte) []byte {
	out := make([]byte, 0, len(page)+len(scriptTag))
	locs := bodyEnd.FindAllIndex(page, -1)
	if len(locs) == 0 {
		out = append(out, page...)
		return append(out, scriptTag...)
	}
	idx := locs[len(locs)-1][0]
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}
