package main

import (
	"net/url"
	"sync"
)

// Recognized selection query keys. Any other key in the mapping is ignored
// and dropped on the next transition.
const (
	queryKeyProvince = "province"
	queryKeyRegency  = "regency"
	queryKeyDistrict = "district"
)

// SelectionQuery is the externally owned key→value mapping that encodes the
// current selection, typically the URL query string. An absent key means the
// level is unselected. Values are untrusted: users edit URLs by hand, so a
// value that matches nothing is treated as "no selection", never as an error.
type SelectionQuery map[string]string

func selectionQueryFromValues(values url.Values) SelectionQuery {
	q := SelectionQuery{}
	for _, key := range []string{queryKeyProvince, queryKeyRegency, queryKeyDistrict} {
		if v := values.Get(key); v != "" {
			q[key] = v
		}
	}
	return q
}

func (q SelectionQuery) Clone() SelectionQuery {
	out := make(SelectionQuery, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Encode renders the mapping as a canonical URL query string.
func (q SelectionQuery) Encode() string {
	values := url.Values{}
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}

// DerivedState is everything the selector UI needs, computed from the dataset
// and the query alone. A selection at one level is only ever reported when its
// parent level is selected and the parent ids line up; stale values left in
// the query after an upper level changed derive as unselected.
type DerivedState struct {
	Province        *Province  `json:"province"`
	Regency         *Regency   `json:"regency"`
	District        *District  `json:"district"`
	RegencyOptions  []Regency  `json:"regency_options"`
	DistrictOptions []District `json:"district_options"`
}

// deriveSelection recomputes the full derived state. Pure: same dataset and
// query always give the same state. Regency lookup is scoped to the selected
// province's candidates (and district to the regency's), which is what keeps
// the selection a connected chain.
func deriveSelection(d *RegionDataset, q SelectionQuery) DerivedState {
	st := DerivedState{
		RegencyOptions:  []Regency{},
		DistrictOptions: []District{},
	}

	st.Province = d.ProvinceByID(q[queryKeyProvince])
	if st.Province == nil {
		return st
	}

	st.RegencyOptions = d.RegenciesOf(st.Province.ID)
	if want := q[queryKeyRegency]; want != "" {
		for i := range st.RegencyOptions {
			if regionID(st.RegencyOptions[i].ID) == want {
				st.Regency = &st.RegencyOptions[i]
				break
			}
		}
	}
	if st.Regency == nil {
		return st
	}

	st.DistrictOptions = d.DistrictsOf(st.Regency.ID)
	if want := q[queryKeyDistrict]; want != "" {
		for i := range st.DistrictOptions {
			if regionID(st.DistrictOptions[i].ID) == want {
				st.District = &st.DistrictOptions[i]
				break
			}
		}
	}
	return st
}

// encodeSelection rebuilds the query mapping for a derived state. Deriving
// from the result reproduces the same selection chain.
func encodeSelection(st DerivedState) SelectionQuery {
	q := SelectionQuery{}
	if st.Province != nil {
		q[queryKeyProvince] = regionID(st.Province.ID)
	}
	if st.Regency != nil {
		q[queryKeyRegency] = regionID(st.Regency.ID)
	}
	if st.District != nil {
		q[queryKeyDistrict] = regionID(st.District.ID)
	}
	return q
}

// Transitions. Each one builds the complete replacement mapping; the caller
// swaps it in whole. Never merge into the old mapping: stale keys from a
// deeper selection must not survive a shallower change.

// transitionSetProvince selects a province (or clears it when newID is
// empty). Regency and district are always dropped.
func transitionSetProvince(newID string) SelectionQuery {
	q := SelectionQuery{}
	if newID != "" {
		q[queryKeyProvince] = newID
	}
	return q
}

// transitionSetRegency selects a regency under the currently selected
// province. Without a selected province there is nothing to attach the
// regency to, so the current mapping comes back unchanged.
func transitionSetRegency(d *RegionDataset, current SelectionQuery, newID string) SelectionQuery {
	st := deriveSelection(d, current)
	if st.Province == nil {
		return current.Clone()
	}
	q := SelectionQuery{queryKeyProvince: regionID(st.Province.ID)}
	if newID != "" {
		q[queryKeyRegency] = newID
	}
	return q
}

// transitionSetDistrict selects a district under the currently selected
// regency; no-op unless both ancestors are selected.
func transitionSetDistrict(d *RegionDataset, current SelectionQuery, newID string) SelectionQuery {
	st := deriveSelection(d, current)
	if st.Province == nil || st.Regency == nil {
		return current.Clone()
	}
	q := SelectionQuery{
		queryKeyProvince: regionID(st.Province.ID),
		queryKeyRegency:  regionID(st.Regency.ID),
	}
	if newID != "" {
		q[queryKeyDistrict] = newID
	}
	return q
}

// transitionReset clears the whole selection.
func transitionReset() SelectionQuery {
	return SelectionQuery{}
}

// QueryStore is the query-state collaborator: read the whole mapping, replace
// the whole mapping. Partial updates are deliberately not part of the
// contract.
type QueryStore interface {
	Query() SelectionQuery
	Replace(SelectionQuery)
}

// memoryQueryStore is an in-process QueryStore. The onChange hook fires after
// every replacement with the new mapping, mirroring how a URL store triggers
// a re-render.
type memoryQueryStore struct {
	mu       sync.Mutex
	values   SelectionQuery
	onChange func(SelectionQuery)
}

func newMemoryQueryStore(initial SelectionQuery) *memoryQueryStore {
	return &memoryQueryStore{values: initial.Clone()}
}

func (s *memoryQueryStore) Query() SelectionQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

func (s *memoryQueryStore) Replace(q SelectionQuery) {
	s.mu.Lock()
	s.values = q.Clone()
	hook := s.onChange
	current := s.values.Clone()
	s.mu.Unlock()
	if hook != nil {
		hook(current)
	}
}

// SelectionSession binds a query store to a dataset and keeps the derived
// state current: every transition is one atomic whole-mapping replace
// followed by a recompute, so no intermediate mapping is ever observable.
type SelectionSession struct {
	dataset *RegionDataset
	store   QueryStore
	state   DerivedState
}

func newSelectionSession(d *RegionDataset, store QueryStore) *SelectionSession {
	return &SelectionSession{
		dataset: d,
		store:   store,
		state:   deriveSelection(d, store.Query()),
	}
}

func (s *SelectionSession) State() DerivedState { return s.state }

func (s *SelectionSession) SetProvince(id string) {
	s.apply(transitionSetProvince(id))
}

func (s *SelectionSession) SetRegency(id string) {
	s.apply(transitionSetRegency(s.dataset, s.store.Query(), id))
}

func (s *SelectionSession) SetDistrict(id string) {
	s.apply(transitionSetDistrict(s.dataset, s.store.Query(), id))
}

func (s *SelectionSession) Reset() {
	s.apply(transitionReset())
}

func (s *SelectionSession) apply(q SelectionQuery) {
	s.store.Replace(q)
	s.state = deriveSelection(s.dataset, s.store.Query())
}
