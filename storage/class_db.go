package storage

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/sync/errgroup"

	"github.com/halcyonlabs/starknode/felt"
	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/types"
)

// dbUpdatesBatchSize is the number of classes written per engine batch when
// storing a block's declarations.
const dbUpdatesBatchSize = 1024

type classInfoRecord struct {
	Info     types.ClassInfo `json:"info"`
	Location Location        `json:"location"`
}

// storeClasses writes class metadata, then compiled artifacts, each in
// fixed-size chunks flushed in parallel. Chunks touch disjoint keys, so the
// parallel writers never race on a record.
//
// Legacy networks permit redundant re-declaration of the same class across
// blocks: if the class already exists in the finalized tier the write is
// skipped, first writer wins.
func (b *Backend) storeClasses(location Location, classes []types.ConvertedClass, infoPrefix, compiledPrefix []byte) error {
	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())

	for _, chunk := range chunks(classes, dbUpdatesBatchSize) {
		g.Go(func() error {
			batch := new(leveldb.Batch)
			for i := range chunk {
				class := &chunk[i]
				exists, err := b.ContainsClass(class.ClassHash)
				if err != nil {
					return err
				}
				if exists {
					log.Trace(log.Storage, "class already declared, skipping", "hash", class.ClassHash)
					continue
				}
				record, err := json.Marshal(classInfoRecord{Info: class.Info, Location: location})
				if err != nil {
					return err
				}
				batch.Put(feltKey(infoPrefix, class.ClassHash.Marshal()), record)
			}
			return b.db.WriteBatch(batch)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("writing class info: %w", err)
	}

	var compiled []types.ConvertedClass
	for _, class := range classes {
		if !class.IsLegacy() {
			compiled = append(compiled, class)
		}
	}

	g = errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for _, chunk := range chunks(compiled, dbUpdatesBatchSize) {
		g.Go(func() error {
			batch := new(leveldb.Batch)
			for i := range chunk {
				class := &chunk[i]
				data, err := json.Marshal(class.Compiled)
				if err != nil {
					return err
				}
				batch.Put(feltKey(compiledPrefix, class.Info.CompiledClassHash.Marshal()), data)
			}
			return b.db.WriteBatch(batch)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("writing compiled classes: %w", err)
	}
	return nil
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// GetClassInfo returns the class metadata visible at the requested location,
// or nil if the class is unknown or not yet visible there. A pending-aware
// read consults the pending tier first.
func (b *Backend) GetClassInfo(requested Location, classHash felt.Felt) (*types.ClassInfo, error) {
	record, err := b.classRecord(requested, classHash)
	if err != nil || record == nil {
		return nil, err
	}
	if !ResolveVisibility(requested, record.Location) {
		return nil, nil
	}
	return &record.Info, nil
}

func (b *Backend) classRecord(requested Location, classHash felt.Felt) (*classInfoRecord, error) {
	var record classInfoRecord
	if requested.Pending {
		found, err := b.getJSON(feltKey(prefixPendingClassInfo, classHash.Marshal()), &record)
		if err != nil {
			return nil, err
		}
		if found {
			return &record, nil
		}
	}
	found, err := b.getJSON(feltKey(prefixClassInfo, classHash.Marshal()), &record)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

// ContainsClass reports whether the class exists in the finalized tier.
func (b *Backend) ContainsClass(classHash felt.Felt) (bool, error) {
	return b.db.Has(feltKey(prefixClassInfo, classHash.Marshal()))
}

// GetCompiledClass returns the compiled artifact by its compiled class hash.
// Pending-aware reads consult the pending tier first.
func (b *Backend) GetCompiledClass(requested Location, compiledClassHash felt.Felt) (*types.CompiledClass, error) {
	var compiled types.CompiledClass
	if requested.Pending {
		found, err := b.getJSON(feltKey(prefixPendingClassCompiled, compiledClassHash.Marshal()), &compiled)
		if err != nil {
			return nil, err
		}
		if found {
			return &compiled, nil
		}
	}
	found, err := b.getJSON(feltKey(prefixClassCompiled, compiledClassHash.Marshal()), &compiled)
	if err != nil || !found {
		return nil, err
	}
	return &compiled, nil
}
