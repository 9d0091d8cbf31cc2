package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// FetchError marks a failed dataset load attempt: the document was
// unreachable or did not decode into the expected shape. It is terminal for
// that attempt — the loader has no retry or partial-result semantics — and is
// surfaced to the caller so a retry can be offered.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load region dataset from %s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("load region dataset from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DatasetProvider abstraction for fetching the region dataset
type DatasetProvider interface {
	Load(ctx context.Context) (*RegionDataset, error)
	Source() string
}

// HTTPDatasetProvider loads the dataset document from a static URL.
type HTTPDatasetProvider struct {
	URL    string
	Client *http.Client
}

func (p *HTTPDatasetProvider) Source() string { return p.URL }

func (p *HTTPDatasetProvider) Load(ctx context.Context) (*RegionDataset, error) {
	if p.URL == "" {
		return nil, &FetchError{Source: "(unset)", Err: errors.New("dataset URL missing")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, &FetchError{Source: p.URL, Err: err}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: p.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Source: p.URL,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	ds, err := decodeRegionDataset(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: p.URL, Err: err}
	}
	return ds, nil
}

// FileDatasetProvider loads the dataset document from local disk.
type FileDatasetProvider struct {
	Path string
}

func (p *FileDatasetProvider) Source() string { return p.Path }

func (p *FileDatasetProvider) Load(ctx context.Context) (*RegionDataset, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, &FetchError{Source: p.Path, Err: err}
	}
	defer f.Close()

	ds, err := decodeRegionDataset(f)
	if err != nil {
		return nil, &FetchError{Source: p.Path, Err: err}
	}
	return ds, nil
}

// FallbackDatasetProvider prioritizes first, falls back to second
type FallbackDatasetProvider struct {
	Primary   DatasetProvider
	Secondary DatasetProvider
}

func (p *FallbackDatasetProvider) Source() string {
	return fmt.Sprintf("%s (fallback %s)", p.Primary.Source(), p.Secondary.Source())
}

func (p *FallbackDatasetProvider) Load(ctx context.Context) (*RegionDataset, error) {
	ds, err := p.Primary.Load(ctx)
	if err != nil {
		return p.Secondary.Load(ctx)
	}
	return ds, nil
}
