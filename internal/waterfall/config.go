package waterfall

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ParseStages validates configured stage names. Stages may be disabled by
// omission but never reordered or repeated.
func ParseStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return append([]Stage(nil), Stages...), nil
	}
	out := make([]Stage, 0, len(names))
	last := -1
	for _, n := range names {
		st := Stage(strings.ToLower(strings.TrimSpace(n)))
		o := st.order()
		if o < 0 {
			return nil, eris.Errorf("waterfall: unknown stage %q", n)
		}
		if o <= last {
			return nil, eris.Errorf("waterfall: stage %q out of order (want %v)", n, Stages)
		}
		last = o
		out = append(out, st)
	}
	return out, nil
}
