package store

// AddMember makes memberID a direct member of projectID. The project starts
// observing the member and references the member's whole current history so
// earlier time is visible at this level straight away. Ancestors of the
// project are not updated. Returns false when the project is missing, the ids
// are equal or the member is already direct.
func (s *Store) AddMember(projectID, memberID string) bool {
	p := s.projects[projectID]
	m := s.Get(memberID)
	if p == nil || m == nil || projectID == memberID || p.members.has(memberID) {
		return false
	}
	s.addObserver(memberID, projectID)
	p.members.add(memberID)
	for _, iv := range s.History(memberID) {
		p.history.add(iv.ID)
		s.AddInterval(iv, memberID)
	}
	return true
}

// RemoveMember detaches memberID from projectID. History ids copied in by
// AddMember stay in the project's own history; project totals never read it.
func (s *Store) RemoveMember(projectID, memberID string) {
	s.removeObserver(memberID, projectID)
	if p := s.projects[projectID]; p != nil {
		p.members.remove(memberID)
	}
}

// Find looks searchID up starting at rootID: an activity matches only itself,
// a project also searches its members depth first.
func (s *Store) Find(rootID, searchID string) *Trackable {
	return s.find(rootID, searchID, idSet{})
}

func (s *Store) find(rootID, searchID string, seen idSet) *Trackable {
	root := s.Get(rootID)
	if root == nil || seen.has(rootID) {
		return nil
	}
	if rootID == searchID {
		return root
	}
	seen.add(rootID)
	if root.kind != KindProject {
		return nil
	}
	for _, memberID := range root.members.sorted() {
		if memberID == searchID {
			return s.Get(memberID)
		}
		if found := s.find(memberID, searchID, seen); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether searchID is a strict descendant of rootID.
func (s *Store) Contains(rootID, searchID string) bool {
	return rootID != searchID && s.Find(rootID, searchID) != nil
}
