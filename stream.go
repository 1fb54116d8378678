package pqseal

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// StreamKeySize is the key size for the STREAM construction.
const StreamKeySize = chacha20poly1305.KeySize

// streamChunkSize is the plaintext chunk size. Each chunk is sealed
// independently under a counter nonce, so tampering, truncation, and
// chunk reordering are all detected.
const streamChunkSize = 64 * 1024

const streamOverhead = chacha20poly1305.Overhead

// StreamWriter encrypts data written to it using the STREAM construction
// with ChaCha20-Poly1305 and writes the ciphertext to the underlying
// writer. Close must be called to seal the final chunk; without it the
// stream does not authenticate as complete.
type StreamWriter struct {
	aead    cipher.AEAD
	dst     io.Writer
	buf     []byte
	counter uint64
	closed  bool
}

// NewStreamWriter creates an encrypting writer. The 32-byte key must never
// be reused for another stream.
func NewStreamWriter(key []byte, dst io.Writer) (*StreamWriter, error) {
	aead, err := streamAEAD(key)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{aead: aead, dst: dst, buf: make([]byte, 0, streamChunkSize)}, nil
}

// Write buffers p and flushes complete chunks.
func (w *StreamWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed stream")
	}
	w.buf = append(w.buf, p...)
	// Keep one full chunk back so Close always has a final chunk to seal.
	for len(w.buf) > streamChunkSize {
		if err := w.flushChunk(w.buf[:streamChunkSize], false); err != nil {
			return 0, err
		}
		w.buf = w.buf[streamChunkSize:]
	}
	return len(p), nil
}

// Close seals the final chunk. It does not close the underlying writer.
func (w *StreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flushChunk(w.buf, true)
}

func (w *StreamWriter) flushChunk(plaintext []byte, last bool) error {
	ct := w.aead.Seal(nil, streamNonce(w.counter, last), plaintext, nil)
	w.counter++
	_, err := w.dst.Write(ct)
	return err
}

// StreamReader decrypts a STREAM ciphertext read from the underlying
// reader. A truncated, reordered, or otherwise tampered stream fails with
// ErrAEADAuthentication.
type StreamReader struct {
	aead    cipher.AEAD
	src     io.Reader
	encBuf  []byte
	plain   []byte
	counter uint64
	done    bool
	err     error
}

// NewStreamReader creates a decrypting reader for a stream produced by
// [NewStreamWriter] under the same key.
func NewStreamReader(key []byte, src io.Reader) (*StreamReader, error) {
	aead, err := streamAEAD(key)
	if err != nil {
		return nil, err
	}
	return &StreamReader{
		aead:   aead,
		src:    src,
		encBuf: make([]byte, streamChunkSize+streamOverhead),
	}, nil
}

func (r *StreamReader) Read(p []byte) (int, error) {
	for len(r.plain) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.readChunk()
	}
	n := copy(p, r.plain)
	r.plain = r.plain[n:]
	return n, nil
}

func (r *StreamReader) readChunk() {
	if r.done {
		r.err = io.EOF
		return
	}
	n, err := io.ReadFull(r.src, r.encBuf)
	switch {
	case err == io.EOF:
		// The final chunk is mandatory even for empty plaintexts, so a
		// clean EOF here means the stream was cut off.
		r.err = fmt.Errorf("%w: truncated stream", ErrAEADAuthentication)
		return
	case err == io.ErrUnexpectedEOF:
		// Short chunk: must be the final one.
		if n < streamOverhead {
			r.err = fmt.Errorf("%w: truncated stream", ErrAEADAuthentication)
			return
		}
		plain, openErr := r.aead.Open(nil, streamNonce(r.counter, true), r.encBuf[:n], nil)
		if openErr != nil {
			r.err = ErrAEADAuthentication
			return
		}
		r.counter++
		r.plain = plain
		r.done = true
		return
	case err != nil:
		r.err = err
		return
	}

	// Full chunk: usually not the last, but a plaintext that is an exact
	// multiple of the chunk size ends with a full final chunk.
	plain, openErr := r.aead.Open(nil, streamNonce(r.counter, false), r.encBuf, nil)
	if openErr != nil {
		plain, openErr = r.aead.Open(nil, streamNonce(r.counter, true), r.encBuf, nil)
		if openErr != nil {
			r.err = ErrAEADAuthentication
			return
		}
		if !r.atEOF() {
			r.err = fmt.Errorf("%w: data after final chunk", ErrAEADAuthentication)
			return
		}
		r.done = true
	}
	r.counter++
	r.plain = plain
}

func (r *StreamReader) atEOF() bool {
	var b [1]byte
	n, err := r.src.Read(b[:])
	return n == 0 && err == io.EOF
}

// streamNonce builds the 12-byte chunk nonce: an 11-byte big-endian
// counter followed by a final-chunk flag byte.
func streamNonce(counter uint64, last bool) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[3:11], counter)
	if last {
		nonce[11] = 1
	}
	return nonce
}

func streamAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != StreamKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(key), StreamKeySize)
	}
	return chacha20poly1305.New(key)
}

// StreamEncrypt encrypts plaintext in one call using the STREAM
// construction. The key must be exactly 32 bytes and never reused for
// another stream.
func StreamEncrypt(key, plaintext []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := NewStreamWriter(key, &out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// StreamDecrypt decrypts a ciphertext produced by [StreamEncrypt].
func StreamDecrypt(key, ciphertext []byte) ([]byte, error) {
	r, err := NewStreamReader(key, bytes.NewReader(ciphertext))
	if err != nil {
		return nil, err
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
