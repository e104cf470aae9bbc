package engine

import "fmt"

// spillState records which endpoints of a spilled edge record are already
// resolved, so later passes skip them instead of re-deriving their state.
type spillState struct {
	fromResolved bool
	toResolved   bool
}

func (s spillState) terminal() bool { return s.fromResolved && s.toResolved }

// Spill lines carry a fixed-width prefix "<f><t>\t" ahead of the serialized
// record, where f and t are '0' or '1'. The fixed width keeps the encoding
// unambiguous even when the record format itself uses tab separators.

func encodeSpill(st spillState, payload string) string {
	buf := []byte{'0', '0', '\t'}
	if st.fromResolved {
		buf[0] = '1'
	}
	if st.toResolved {
		buf[1] = '1'
	}
	return string(buf) + payload
}

func decodeSpill(line string) (spillState, string, error) {
	if len(line) < 3 || line[2] != '\t' {
		return spillState{}, "", fmt.Errorf("corrupt spill record %q", line)
	}
	return spillState{
		fromResolved: line[0] == '1',
		toResolved:   line[1] == '1',
	}, line[3:], nil
}
