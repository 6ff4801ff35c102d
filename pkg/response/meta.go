package response

import (
	"strings"
	"time"

	"dario.cat/mergo"
)

// Meta describes the request a response was built for. Every field is
// optional; Timestamp defaults to the build time in UTC.
type Meta struct {
	Timestamp  *time.Time     `json:"timestamp"`
	DurationMS *float64       `json:"duration_ms"`
	RequestID  *string        `json:"request_id"`
	Method     *string        `json:"method"`
	Path       *string        `json:"path"`
	Version    *string        `json:"version"`
	Extra      map[string]any `json:"extra"`
}

type MetaOption func(*Meta)

// NewMeta builds a Meta from options. Fields without an option stay unset.
func NewMeta(opts ...MetaOption) *Meta {
	m := &Meta{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func WithTimestamp(ts time.Time) MetaOption {
	return func(m *Meta) {
		utc := ts.UTC()
		m.Timestamp = &utc
	}
}

// WithDuration records d in fractional milliseconds.
func WithDuration(d time.Duration) MetaOption {
	return func(m *Meta) {
		ms := float64(d) / float64(time.Millisecond)
		m.DurationMS = &ms
	}
}

func WithRequestID(id string) MetaOption {
	return func(m *Meta) {
		if id != "" {
			m.RequestID = &id
		}
	}
}

func WithMethod(method string) MetaOption {
	return func(m *Meta) {
		if method != "" {
			upper := strings.ToUpper(method)
			m.Method = &upper
		}
	}
}

func WithPath(path string) MetaOption {
	return func(m *Meta) {
		if path != "" {
			m.Path = &path
		}
	}
}

func WithVersion(version string) MetaOption {
	return func(m *Meta) {
		if version != "" {
			m.Version = &version
		}
	}
}

func WithExtra(key string, value any) MetaOption {
	return func(m *Meta) {
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[key] = value
	}
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// normalizeMeta returns a copy of m with defaults applied: a nil meta becomes
// a meta holding only the current timestamp, a missing timestamp is filled in
// and the method is upper-cased.
func normalizeMeta(m *Meta) (*Meta, error) {
	ts := now()
	defaults := Meta{Timestamp: &ts}

	if m == nil {
		return &defaults, nil
	}

	out := *m
	if out.Extra != nil {
		extra := make(map[string]any, len(out.Extra))
		for k, v := range out.Extra {
			extra[k] = v
		}
		out.Extra = extra
	}
	if err := mergo.Merge(&out, defaults); err != nil {
		return nil, err
	}
	if out.Timestamp != nil && out.Timestamp.Location() != time.UTC {
		utc := out.Timestamp.UTC()
		out.Timestamp = &utc
	}
	if out.Method != nil {
		upper := strings.ToUpper(*out.Method)
		out.Method = &upper
	}
	return &out, nil
}
