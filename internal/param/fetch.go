package param

import (
	"context"
	"strings"
)

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

// Resolve returns value when it is set, otherwise fetches path. Both empty
// resolves to "".
func Resolve(ctx context.Context, f Fetcher, value, path string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	v, err := f.Fetch(ctx, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}
