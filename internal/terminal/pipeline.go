package terminal

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// incompleteTrailingLen returns how many bytes at the end of p form the
// prefix of an unfinished multi-byte UTF-8 sequence. Those bytes must be
// carried over to the next read so a read boundary never splits a
// character. Bytes that are outright invalid (not a sequence prefix)
// report zero and pass through unchanged.
func incompleteTrailingLen(p []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		b := p[len(p)-i]
		if !utf8.RuneStart(b) {
			continue // continuation byte, keep scanning backwards
		}
		var need int
		switch {
		case b&0x80 == 0x00:
			need = 1
		case b&0xE0 == 0xC0:
			need = 2
		case b&0xF0 == 0xE0:
			need = 3
		case b&0xF8 == 0xF0:
			need = 4
		default:
			return 0 // invalid start byte
		}
		if need > i {
			return i
		}
		return 0
	}
	return 0
}

// sendOutputChunk pushes a chunk onto the bounded data channel. A full
// channel blocks the reader until the emitter catches up: deliberate
// backpressure, never data loss.
func sendOutputChunk(out chan<- string, chunk string) {
	select {
	case out <- chunk:
	default:
		out <- chunk
	}
}

// readLoop drains the PTY as fast as the OS allows, carrying incomplete
// trailing UTF-8 sequences between reads, and closes the data channel on
// EOF or read error (the natural-termination trigger).
func (m *Manager) readLoop(s *Session, out chan<- string) {
	defer close(out)

	buf := make([]byte, m.readBufferSize)
	var carry []byte

	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, 0, len(carry)+n)
			chunk = append(chunk, carry...)
			chunk = append(chunk, buf[:n]...)

			hold := incompleteTrailingLen(chunk)
			carry = append(carry[:0], chunk[len(chunk)-hold:]...)

			if len(chunk) > hold {
				sendOutputChunk(out, string(chunk[:len(chunk)-hold]))
			}
		}
		if err != nil {
			if err != io.EOF {
				m.logger.Debug("pty read ended",
					zap.String("session_id", s.id),
					zap.Error(err))
			}
			break
		}
	}

	// A sequence still incomplete at EOF is emitted as-is rather than
	// dropped; the concatenated output must account for every byte read.
	if len(carry) > 0 {
		sendOutputChunk(out, string(carry))
	}
}

// emitLoop batches chunks from the data channel into single data events.
// It blocks for the first chunk, drains whatever else is queued, and if
// the previous emission was recent enough to indicate a burst, yields
// briefly and drains once more before emitting. One activity pulse is
// sent per emission. When the channel closes it flushes the remaining
// batch and finalizes the session.
func (m *Manager) emitLoop(s *Session, in <-chan string, pulse chan<- struct{}) {
	defer close(pulse)
	defer m.finalize(s.id)

	var lastEmit time.Time

	for {
		first, ok := <-in
		if !ok {
			return
		}

		var batch strings.Builder
		batch.WriteString(first)
		drainQueued(in, &batch)

		if time.Since(lastEmit) < emitFastThreshold {
			time.Sleep(coalesceYield)
			drainQueued(in, &batch)
		}

		m.publishData(s.id, batch.String())
		lastEmit = time.Now()

		select {
		case pulse <- struct{}{}:
		default:
		}
	}
}

// drainQueued appends everything currently queued on the channel without
// blocking. Receiving from a closed channel is fine here: the outer loop
// observes the closure on its next blocking receive, after the batch in
// progress has been emitted.
func drainQueued(in <-chan string, batch *strings.Builder) {
	for {
		select {
		case chunk, ok := <-in:
			if !ok {
				return
			}
			batch.WriteString(chunk)
		default:
			return
		}
	}
}
