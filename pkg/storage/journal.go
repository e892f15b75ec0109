package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/uhyunpark/orderdesk/pkg/orders"
	"github.com/uhyunpark/orderdesk/pkg/util"
)

// Entry is one line of the API-call journal.
type Entry struct {
	Time     time.Time       `json:"time"`
	Endpoint string          `json:"endpoint"`
	Params   map[string]any  `json:"params,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// FileJournal appends each simulated API call to a file as one JSON object
// per line.
type FileJournal struct {
	mu    sync.Mutex
	f     *os.File
	w     *bufio.Writer
	clock util.Clock
	err   error // first write failure
}

func NewFileJournal(path string, clock util.Clock) (*FileJournal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &FileJournal{f: f, w: bufio.NewWriter(f), clock: clock}, nil
}

// APICall implements orders.EventSink. Encoding failures are written as a
// line carrying only the endpoint.
func (j *FileJournal) APICall(endpoint string, params map[string]any, response any) {
	e := Entry{Time: j.clock.Now().UTC(), Endpoint: endpoint, Params: params}
	if raw, err := json.Marshal(response); err == nil {
		e.Response = raw
	}
	line, err := json.Marshal(e)
	if err != nil {
		line, _ = json.Marshal(Entry{Time: e.Time, Endpoint: endpoint})
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	line = append(line, '\n')
	if _, err := j.w.Write(line); err != nil {
		j.err = fmt.Errorf("write journal: %w", err)
		return
	}
	if err := j.w.Flush(); err != nil {
		j.err = fmt.Errorf("flush journal: %w", err)
	}
}

// Err returns the first write failure. Once set, later calls are dropped.
func (j *FileJournal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close flushes and closes the file. It reports the first write failure
// seen by APICall ahead of any error from closing.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	flushErr := j.w.Flush()
	closeErr := j.f.Close()
	switch {
	case j.err != nil:
		return j.err
	case flushErr != nil:
		return flushErr
	default:
		return closeErr
	}
}

var _ orders.EventSink = (*FileJournal)(nil)

// ReadJournal returns the last n entries of the journal at path, oldest
// first. n <= 0 returns everything. Lines that fail to parse are skipped.
func ReadJournal(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) > n {
			out = out[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}
