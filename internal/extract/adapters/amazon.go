package adapters

import (
	"context"
	"regexp"
)

// AmazonAdapter reads the ISBN-10 that marketplace product URLs carry as their product id
type AmazonAdapter struct {
	patterns []*regexp.Regexp
}

// NewAmazonAdapter creates an adapter for Amazon product links
func NewAmazonAdapter() *AmazonAdapter {
	return &AmazonAdapter{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`/dp/([0-9X]{10})/?`),
			regexp.MustCompile(`/product/([0-9X]{10})/?`),
		},
	}
}

// Name returns the adapter name
func (a *AmazonAdapter) Name() string {
	return "amazon"
}

// CanHandle accepts any URL; the path shape is what matters, not the host,
// since regional storefronts and affiliate domains share it.
func (a *AmazonAdapter) CanHandle(rawURL string) bool {
	return true
}

// Extract tries each path shape in order and returns the first that matches
func (a *AmazonAdapter) Extract(ctx context.Context, rawURL string) ([]string, error) {
	for _, pattern := range a.patterns {
		matches := pattern.FindAllStringSubmatch(rawURL, -1)
		if len(matches) == 0 {
			continue
		}
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m[1])
		}
		return candidates, nil
	}
	return nil, nil
}
