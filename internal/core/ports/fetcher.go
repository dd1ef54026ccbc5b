package ports

import "context"

// FetchResult is the body of a fetched resource and the URL it was finally served from.
type FetchResult struct {
	Body string
	// FinalURL reflects any redirects followed while fetching.
	FinalURL string
}

// Fetcher retrieves remote text resources.
//
//go:generate mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// FetchText downloads url and returns its body.
	// A non-success status is reported as an error.
	FetchText(ctx context.Context, url string) (FetchResult, error)
}
