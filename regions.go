package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Province is the top level of the administrative hierarchy.
type Province struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Regency (kabupaten/kota) belongs to exactly one province.
type Regency struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ProvinceID int    `json:"province_id"`
}

// District (kecamatan) belongs to exactly one regency.
type District struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	RegencyID int    `json:"regency_id"`
}

// RegionDataset holds the full province/regency/district hierarchy.
// It is loaded once per attempt and never mutated afterwards; collections
// keep document order. A regency or district whose parent id references
// nothing simply never shows up in any candidate list.
type RegionDataset struct {
	Provinces []Province `json:"provinces"`
	Regencies []Regency  `json:"regencies"`
	Districts []District `json:"districts"`
}

var errDatasetShape = errors.New("document is not a province/regency/district dataset")

// decodeRegionDataset parses the dataset document. All three collections must
// be present (empty is fine); anything else fails the whole load, there are no
// partial results.
func decodeRegionDataset(r io.Reader) (*RegionDataset, error) {
	var doc struct {
		Provinces *[]Province `json:"provinces"`
		Regencies *[]Regency  `json:"regencies"`
		Districts *[]District `json:"districts"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode region dataset: %w", err)
	}
	if doc.Provinces == nil || doc.Regencies == nil || doc.Districts == nil {
		return nil, errDatasetShape
	}
	ds := &RegionDataset{
		Provinces: *doc.Provinces,
		Regencies: *doc.Regencies,
		Districts: *doc.Districts,
	}
	if ds.Provinces == nil {
		ds.Provinces = []Province{}
	}
	if ds.Regencies == nil {
		ds.Regencies = []Regency{}
	}
	if ds.Districts == nil {
		ds.Districts = []District{}
	}
	return ds, nil
}

// regionID renders an id in its canonical decimal form. Query values are
// compared against this exact string; "01" or " 1" never match id 1.
func regionID(id int) string {
	return strconv.Itoa(id)
}

// ProvinceByID returns the first province whose canonical id equals raw,
// or nil when raw is empty or matches nothing.
func (d *RegionDataset) ProvinceByID(raw string) *Province {
	if raw == "" {
		return nil
	}
	for i := range d.Provinces {
		if regionID(d.Provinces[i].ID) == raw {
			return &d.Provinces[i]
		}
	}
	return nil
}

// RegencyByID returns the first regency whose canonical id equals raw, or
// nil. Unlike selection derivation this looks at the full collection; it
// backs the address-a-regency-directly listing endpoint.
func (d *RegionDataset) RegencyByID(raw string) *Regency {
	if raw == "" {
		return nil
	}
	for i := range d.Regencies {
		if regionID(d.Regencies[i].ID) == raw {
			return &d.Regencies[i]
		}
	}
	return nil
}

// RegenciesOf lists the regencies of one province, in document order.
func (d *RegionDataset) RegenciesOf(provinceID int) []Regency {
	out := []Regency{}
	for _, r := range d.Regencies {
		if r.ProvinceID == provinceID {
			out = append(out, r)
		}
	}
	return out
}

// DistrictsOf lists the districts of one regency, in document order.
func (d *RegionDataset) DistrictsOf(regencyID int) []District {
	out := []District{}
	for _, dt := range d.Districts {
		if dt.RegencyID == regencyID {
			out = append(out, dt)
		}
	}
	return out
}
