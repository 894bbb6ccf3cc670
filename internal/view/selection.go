package view

// SelectionSet 依選取順序保存訂單ID，不會重複
type SelectionSet struct {
	ids   []string
	index map[string]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{index: make(map[string]struct{})}
}

func (s *SelectionSet) Add(ids ...string) {
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func (s *SelectionSet) Remove(ids ...string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			drop[id] = struct{}{}
			delete(s.index, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

func (s *SelectionSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IDs 回傳複本
func (s *SelectionSet) IDs() []string {
	return append([]string{}, s.ids...)
}

func (s *SelectionSet) Len() int {
	return len(s.ids)
}

func (s *SelectionSet) Clear() {
	s.ids = nil
	s.index = make(map[string]struct{})
}
