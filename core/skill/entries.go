package skill

// Entries is the ordered list of a session's skill entries.
type Entries []Entry

// Add appends a blank entry at the end of the list.
func (es Entries) Add(manual bool) Entries {
	return append(es, NewEntry(len(es), manual))
}

// Remove drops the entry at index i and re-sequences skill_order from 0.
// The relative order of the remaining entries is preserved.
func (es Entries) Remove(i int) (Entries, error) {
	if i < 0 || i >= len(es) {
		return es, ErrIndexOutOfRange
	}
	out := make(Entries, 0, len(es)-1)
	out = append(out, es[:i]...)
	out = append(out, es[i+1:]...)
	return out.Resequence(), nil
}

// Replace swaps the entry at index i, keeping its position and recalculating it.
func (es Entries) Replace(i int, e Entry) (Entries, error) {
	if i < 0 || i >= len(es) {
		return es, ErrIndexOutOfRange
	}
	out := es.Clone()
	e.SkillOrder = i
	out[i] = Recalculate(e)
	return out, nil
}

// Resequence rewrites skill_order to match list positions.
func (es Entries) Resequence() Entries {
	for i := range es {
		es[i].SkillOrder = i
	}
	return es
}

func (es Entries) Clone() Entries {
	if es == nil {
		return nil
	}
	out := make(Entries, len(es))
	copy(out, es)
	return out
}
