package events

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decoder reads a stream of JSON encoded events, one value after another.
// Whitespace (including newlines) between values is ignored.
type Decoder struct {
	dec *json.Decoder
	n   int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next returns the next event in the stream, or io.EOF once the stream is exhausted.
func (d *Decoder) Next() (*Event, error) {
	ev := &Event{}
	if err := d.dec.Decode(ev); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode event %d: %w", d.n+1, err)
	}
	d.n++
	return ev, nil
}

// Count returns the number of events decoded so far.
func (d *Decoder) Count() int {
	return d.n
}
