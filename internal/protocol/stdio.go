package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"toolhub/pkg/logging"
)

const maxLineBytes = 4 << 20

// ServeStdio reads newline-delimited requests from r and writes one response
// line per request to w. Requests are handled concurrently; responses are
// written whole but not necessarily in request order. It returns when r is
// exhausted or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	defer wg.Wait()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp := s.Handle(ctx, line)
				writeMu.Lock()
				defer writeMu.Unlock()
				if _, err := w.Write(append(resp, '\n')); err != nil {
					logging.Warn("Protocol", "Failed to write stdio response: %v", err)
				}
			}()
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
