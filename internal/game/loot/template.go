package loot

// Template is one resolvable loot definition: ungrouped entries rolled
// independently followed by groups rolled in ascending id order.
type Template struct {
	Entries []Entry
	// Groups[i] holds group id i+1; nil when no entry uses that id.
	Groups []*Group
}

func (t *Template) addEntry(e Entry) {
	if !e.grouped() {
		t.Entries = append(t.Entries, e)
		return
	}
	idx := int(e.GroupID) - 1
	for len(t.Groups) <= idx {
		t.Groups = append(t.Groups, nil)
	}
	if t.Groups[idx] == nil {
		t.Groups[idx] = &Group{}
	}
	t.Groups[idx].add(e)
}

// Group returns the group with the given id, or nil.
func (t *Template) Group(id uint8) *Group {
	if id == 0 || int(id) > len(t.Groups) {
		return nil
	}
	return t.Groups[id-1]
}

// each visits ungrouped entries then every group's explicit and equal lists,
// stopping when fn returns true.
func (t *Template) each(fn func(*Entry) bool) bool {
	for i := range t.Entries {
		if fn(&t.Entries[i]) {
			return true
		}
	}
	for _, g := range t.Groups {
		if g != nil && g.each(fn) {
			return true
		}
	}
	return false
}

// IsReference reports whether an ungrouped entry with the given id is a reference.
func (t *Template) IsReference(id uint32) bool {
	for i := range t.Entries {
		if t.Entries[i].ItemID == id && t.Entries[i].IsReference() {
			return true
		}
	}
	return false
}
