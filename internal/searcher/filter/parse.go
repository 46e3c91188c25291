package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

// Parse reads a Filter from query parameters:
//
//	types=markdown,text  from=<RFC 3339>  to=<RFC 3339>
//	min_size=<bytes>  max_size=<bytes>  filenames=<bool>  content=<bool>
//
// Missing parameters keep the Default values.
func Parse(values url.Values) (Filter, error) {
	f := Default()

	if raw := values.Get("types"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Types = append(f.Types, tag)
			}
		}
	}

	var err error
	if f.ModifiedFrom, err = parseTime(values, "from"); err != nil {
		return Filter{}, err
	}
	if f.ModifiedTo, err = parseTime(values, "to"); err != nil {
		return Filter{}, err
	}
	if f.MinSize, err = parseSize(values, "min_size"); err != nil {
		return Filter{}, err
	}
	if f.MaxSize, err = parseSize(values, "max_size"); err != nil {
		return Filter{}, err
	}
	if f.IncludeFilenames, err = parseBool(values, "filenames", f.IncludeFilenames); err != nil {
		return Filter{}, err
	}
	if f.IncludeContent, err = parseBool(values, "content", f.IncludeContent); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseTime(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.Invalidf("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

func parseSize(values url.Values, key string) (*int64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil, apperrors.Invalidf("%s must be a non-negative integer", key)
	}
	return &n, nil
}

func parseBool(values url.Values, key string, fallback bool) (bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Invalidf("%s must be a boolean", key)
	}
	return b, nil
}
