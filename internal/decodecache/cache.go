// Package decodecache is an optional, content-addressed cache of
// previously-decoded block catalogs. It is a pure performance layer: a
// cache miss, a disabled cache and a cache that fails to open all produce
// exactly the same Document a full decode would, only slower.
//
// Entries are keyed by a 64-bit xxHash of the tail payload bytes and store
// the catalog's own encoded (object-codec) bytes, zstd-compressed, since a
// scene file's catalog can be large. When opened without a directory
// (the default, and the only mode exercised by this module's own tests)
// the cache lives entirely in memory for the process lifetime.
package decodecache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/klauspost/compress/zstd"
)

// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu  sync.RWMutex
	mem map[uint64][]byte

	db *leveldb.DB

	enc *zstd.Encoder
	dec *zstd.Decoder

	log func(format string, args ...any)
}

// Option configures a Cache returned by Open.
type Option func(*Cache)

// WithLogger routes degrade-to-no-op diagnostics through a caller-supplied
// logging function instead of discarding them.
func WithLogger(log func(format string, args ...any)) Option {
	return func(c *Cache) { c.log = log }
}

// Open returns a Cache backed by a LevelDB database at dir, or a pure
// in-memory cache when dir is empty. If opening the database fails (for
// example due to permissions), Open logs once via the configured logger
// and returns a working in-memory cache rather than an error: a decode
// cache is never allowed to turn a successful load into a failed one.
func Open(dir string, opts ...Option) *Cache {
	c := &Cache{mem: make(map[uint64][]byte)}
	for _, o := range opts {
		o(c)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err == nil {
		c.enc = enc
	}
	dec, err := zstd.NewReader(nil)
	if err == nil {
		c.dec = dec
	}

	if dir == "" {
		return c
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		c.logf("decodecache: opening %q failed, falling back to in-memory cache: %v", dir, err)
		return c
	}
	c.db = db
	return c
}

func (c *Cache) logf(format string, args ...any) {
	if c.log != nil {
		c.log(format, args...)
	}
}

// Close releases the underlying database handle, if any.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Key hashes tail payload bytes into a lookup key.
func Key(tail []byte) uint64 {
	return xxhash.Sum64(tail)
}

// Get returns the previously-stored catalog bytes for key, if any.
func (c *Cache) Get(key uint64) ([]byte, bool) {
	raw, ok := c.load(key)
	if !ok {
		return nil, false
	}
	if c.dec == nil {
		return raw, true
	}
	out, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		c.logf("decodecache: corrupt entry for key %x, ignoring: %v", key, err)
		return nil, false
	}
	return out, true
}

func (c *Cache) load(key uint64) ([]byte, bool) {
	if c.db != nil {
		v, err := c.db.Get(keyBytes(key), nil)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.mem[key]
	return v, ok
}

// Put stores catalogBytes under key, compressed with zstd when available.
func (c *Cache) Put(key uint64, catalogBytes []byte) {
	payload := catalogBytes
	if c.enc != nil {
		payload = c.enc.EncodeAll(catalogBytes, nil)
	}
	if c.db != nil {
		if err := c.db.Put(keyBytes(key), payload, nil); err != nil {
			c.logf("decodecache: put failed for key %x: %v", key, err)
		}
		return
	}
	c.mu.Lock()
	c.mem[key] = payload
	c.mu.Unlock()
}

func keyBytes(key uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(key >> (8 * i))
	}
	return b
}
