// Package codec converts between serialized location strings and
// domain.Location values.
//
// The string form is "/seg1/seg2?key1=value1&key2=value2". Query keys are
// emitted in sorted order, lists use bracket notation ("key[]=a&key[]=b") and
// the words "true"/"false" decode to booleans.
package codec

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

const arraySuffix = "[]"

// Serialize renders next as a location string.
//
// Query keys present in prev but absent from next are carried forward; a key
// that next maps to nil is dropped instead. Nil entries never reach the
// output.
func Serialize(next domain.Location, prev *domain.Location) string {
	search := make(domain.Search, len(next.Search))
	if prev != nil {
		for k, v := range prev.Search {
			if v != nil {
				search[k] = v
			}
		}
	}
	for k, v := range next.Search {
		if v == nil {
			delete(search, k)
			continue
		}
		search[k] = v
	}

	var sb strings.Builder
	sb.WriteString("/")
	segments := make([]string, 0, len(next.Pathname))
	for _, seg := range next.Pathname {
		if seg == "" {
			continue
		}
		segments = append(segments, url.PathEscape(seg))
	}
	sb.WriteString(strings.Join(segments, "/"))

	if query := encodeQuery(search); query != "" {
		sb.WriteString("?")
		sb.WriteString(query)
	}
	return sb.String()
}

func encodeQuery(search domain.Search) string {
	keys := make([]string, 0, len(search))
	for k := range search {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		key := escape(k)
		switch v := search[k].(type) {
		case []string:
			for _, item := range v {
				pairs = append(pairs, key+arraySuffix+"="+escape(item))
			}
		case []any:
			for _, item := range v {
				if s, ok := scalar(item); ok {
					pairs = append(pairs, key+arraySuffix+"="+escape(s))
				}
			}
		default:
			if s, ok := scalar(v); ok {
				pairs = append(pairs, key+"="+escape(s))
			}
		}
	}
	return strings.Join(pairs, "&")
}

func scalar(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Deserialize parses a location string. Values stay strings, so a value
// spelling "true" round-trips unchanged. Malformed input yields an empty
// location, never an error.
func Deserialize(serialized string) domain.Location {
	loc := domain.NewLocation()

	pathPart, queryPart, _ := strings.Cut(strings.TrimSpace(serialized), "?")

	for _, seg := range strings.Split(pathPart, "/") {
		if seg == "" {
			continue
		}
		unescaped, err := url.PathUnescape(seg)
		if err != nil {
			return domain.NewLocation()
		}
		loc.Pathname = append(loc.Pathname, unescaped)
	}

	if queryPart == "" {
		return loc
	}
	for _, pair := range strings.Split(queryPart, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return domain.NewLocation()
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return domain.NewLocation()
		}
		if key == "" || !hasValue {
			continue
		}

		if name, isArray := strings.CutSuffix(key, arraySuffix); isArray {
			list, _ := loc.Search[name].([]string)
			loc.Search[name] = append(list, value)
			continue
		}

		switch existing := loc.Search[key].(type) {
		case nil:
			loc.Search[key] = value
		case []string:
			loc.Search[key] = append(existing, value)
		default:
			prevValue, _ := loc.Search.String(key)
			loc.Search[key] = []string{prevValue, value}
		}
	}
	return loc
}
