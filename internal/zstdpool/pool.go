// Package zstdpool reuses zstd decoders across archive entries.
package zstdpool

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultMaxMemory caps the memory a single decoder may allocate (256MB).
const DefaultMaxMemory = 256 << 20

// Pool manages reusable zstd decoders.
type Pool struct {
	pool      sync.Pool
	maxMemory uint64
}

// New creates a pool. A maxMemory of 0 applies no limit.
func New(maxMemory uint64) *Pool {
	p := &Pool{maxMemory: maxMemory}
	p.pool.New = func() any {
		dec, err := p.newDecoder(nil)
		if err != nil {
			return nil
		}
		return dec
	}
	return p
}

// Get returns a decoder reading from r and the function that hands it back.
// No release is needed when an error is returned.
func (p *Pool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		fresh, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		fresh, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

// ZipDecompressor returns a decompressor suitable for registering with a zip
// reader for the zstd compression methods.
func (p *Pool) ZipDecompressor() func(io.Reader) io.ReadCloser {
	return func(r io.Reader) io.ReadCloser {
		dec, release, err := p.Get(r)
		if err != nil {
			return errReadCloser{err: err}
		}
		return &pooledReader{dec: dec, release: release}
	}
}

func (p *Pool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
	}
	if p.maxMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxMemory))
	}
	return zstd.NewReader(r, opts...)
}

type pooledReader struct {
	dec     *zstd.Decoder
	release func()
	once    sync.Once
}

func (r *pooledReader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *pooledReader) Close() error {
	r.once.Do(r.release)
	return nil
}

type errReadCloser struct {
	err error
}

func (e errReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e errReadCloser) Close() error             { return nil }
