package scanner

import (
	"context"
	"encoding/json"
	"fmt"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// ProbeResult carries the container-level metadata stored on a file row.
type ProbeResult struct {
	Container  string
	DurationMS int64
	Streams    string // compact stream descriptors, JSON
}

// Prober extracts technical metadata from a media file. Implementations
// must be safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// FFProbe probes files by shelling out to ffprobe.
type FFProbe struct{}

type streamDesc struct {
	Type  string `json:"type"`
	Codec string `json:"codec"`
}

func (FFProbe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	result := &ProbeResult{}
	if data.Format != nil {
		result.Container = data.Format.FormatName
		result.DurationMS = int64(data.Format.DurationSeconds * 1000)
	}

	descs := make([]streamDesc, 0, len(data.Streams))
	for _, s := range data.Streams {
		if s == nil {
			continue
		}
		descs = append(descs, streamDesc{Type: s.CodecType, Codec: s.CodecName})
	}
	if len(descs) > 0 {
		raw, err := json.Marshal(descs)
		if err != nil {
			return nil, fmt.Errorf("encode streams for %s: %w", path, err)
		}
		result.Streams = string(raw)
	}
	return result, nil
}
