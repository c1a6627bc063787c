package accountdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/gagliardetto/solana-go"

	"github.com/picosvm/picosvm/internal/storage/accountdb/compression"
)

// recordHeaderSize is lamports + rent epoch + owner + executable +
// compressed + stored length + uncompressed length.
const recordHeaderSize = 8 + 8 + 32 + 1 + 1 + 4 + 4

// minCompressionSize skips compression for blobs too small to win anything.
const minCompressionSize = 128

// PebbleBackend stores account records in a PebbleDB running on an
// in-memory filesystem. The database is discarded on Close.
type PebbleBackend struct {
	db         *pebble.DB
	compressor compression.Compressor
}

// NewPebbleBackend opens a fresh in-memory PebbleDB.
func NewPebbleBackend(cfg Config) (*PebbleBackend, error) {
	compressor, err := compression.Get(cfg.Compressor)
	if err != nil {
		return nil, err
	}

	opts := &pebble.Options{
		FS: vfs.NewMem(),
		// The store lives and dies with the test process.
		DisableWAL: true,
	}
	db, err := pebble.Open("accounts", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble account store: %w", err)
	}

	return &PebbleBackend{db: db, compressor: compressor}, nil
}

func (p *PebbleBackend) Get(ctx context.Context, addr solana.PublicKey) (*Account, error) {
	if p.db == nil {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(addr[:])
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account store read failed: %w", err)
	}
	defer closer.Close()

	return p.decodeRecord(value)
}

func (p *PebbleBackend) Put(ctx context.Context, addr solana.PublicKey, acct *Account) error {
	if p.db == nil {
		return ErrClosed
	}

	value, err := p.encodeRecord(acct)
	if err != nil {
		return err
	}
	if err := p.db.Set(addr[:], value, pebble.NoSync); err != nil {
		return fmt.Errorf("account store write failed: %w", err)
	}
	return nil
}

func (p *PebbleBackend) PutBatch(ctx context.Context, accts map[solana.PublicKey]*Account) error {
	if p.db == nil {
		return ErrClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for addr, acct := range accts {
		value, err := p.encodeRecord(acct)
		if err != nil {
			return err
		}
		if err := batch.Set(addr[:], value, nil); err != nil {
			return fmt.Errorf("account store batch write failed: %w", err)
		}
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("account store batch commit failed: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Delete(ctx context.Context, addr solana.PublicKey) error {
	if p.db == nil {
		return ErrClosed
	}
	if err := p.db.Delete(addr[:], pebble.NoSync); err != nil {
		return fmt.Errorf("account store delete failed: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// encodeRecord serializes an account, compressing the data blob when that
// actually saves space.
func (p *PebbleBackend) encodeRecord(acct *Account) ([]byte, error) {
	data := acct.Data
	compressed := false

	if len(acct.Data) > minCompressionSize && p.compressor.Name() != "none" {
		candidate, err := p.compressor.Compress(acct.Data)
		if err == nil && len(candidate) < len(acct.Data)*9/10 {
			data = candidate
			compressed = true
		}
	}

	buf := make([]byte, recordHeaderSize+len(data))
	binary.LittleEndian.PutUint64(buf[0:8], acct.Lamports)
	binary.LittleEndian.PutUint64(buf[8:16], acct.RentEpoch)
	copy(buf[16:48], acct.Owner[:])
	if acct.Executable {
		buf[48] = 1
	}
	if compressed {
		buf[49] = 1
	}
	binary.LittleEndian.PutUint32(buf[50:54], uint32(len(data)))
	binary.LittleEndian.PutUint32(buf[54:58], uint32(len(acct.Data)))
	copy(buf[recordHeaderSize:], data)

	return buf, nil
}

func (p *PebbleBackend) decodeRecord(value []byte) (*Account, error) {
	if len(value) < recordHeaderSize {
		return nil, fmt.Errorf("corrupt account record: %d bytes", len(value))
	}

	acct := &Account{
		Lamports:   binary.LittleEndian.Uint64(value[0:8]),
		RentEpoch:  binary.LittleEndian.Uint64(value[8:16]),
		Executable: value[48] == 1,
	}
	copy(acct.Owner[:], value[16:48])

	dataLen := int(binary.LittleEndian.Uint32(value[50:54]))
	rawLen := int(binary.LittleEndian.Uint32(value[54:58]))
	if recordHeaderSize+dataLen > len(value) {
		return nil, fmt.Errorf("corrupt account record: data length %d", dataLen)
	}
	data := value[recordHeaderSize : recordHeaderSize+dataLen]

	if value[49] == 1 {
		decompressed, err := p.compressor.Decompress(data, rawLen)
		if err != nil {
			return nil, fmt.Errorf("corrupt account record: %w", err)
		}
		acct.Data = decompressed
	} else {
		acct.Data = make([]byte, len(data))
		copy(acct.Data, data)
	}

	return acct, nil
}
