package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// JSONL writes one JSON object per line.
type JSONL struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONL opens path for appending, creating it if needed.
func NewJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "jsonl: open %s", path)
	}
	s := NewJSONLWriter(f)
	s.closer = f
	return s, nil
}

// NewJSONLWriter writes records to w. The caller owns w.
func NewJSONLWriter(w io.Writer) *JSONL {
	return &JSONL{enc: json.NewEncoder(w)}
}

func (s *JSONL) Name() string { return "jsonl" }

func (s *JSONL) Write(_ context.Context, rec model.OutputRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return eris.Wrap(s.enc.Encode(rec), "jsonl: encode record")
}

func (s *JSONL) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
