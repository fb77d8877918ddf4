package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/blockworld/internal/world"
)

// ErrCacheClosed возвращается при обращении к закрытому кешу
var ErrCacheClosed = errors.New("кеш генерации закрыт")

// DefaultMaxEntries - число сеток, хранимых кешем по умолчанию
const DefaultMaxEntries = 8

// gridRecord - запись кеша: размеры и сжатые теги блоков
type gridRecord struct {
	Dimensions world.Dimensions `json:"dimensions"`
	Blocks     []byte           `json:"blocks"`
}

// GenerationCache хранит сгенерированные сетки в памяти, ключ - отпечаток
// параметров генерации. Данные никогда не пишутся на диск.
type GenerationCache struct {
	db         *badger.DB
	codec      *Codec
	mutex      sync.RWMutex
	isReady    bool
	maxEntries int
	order      []uint64 // Порядок вставки для вытеснения самых старых записей
}

// NewGenerationCache открывает BadgerDB в режиме in-memory
func NewGenerationCache(maxEntries int) (*GenerationCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &GenerationCache{
		db:         db,
		codec:      codec,
		isReady:    true,
		maxEntries: maxEntries,
	}, nil
}

func cacheKey(fingerprint uint64) []byte {
	return []byte(fmt.Sprintf("grid:%016x", fingerprint))
}

// Store сохраняет сетку под отпечатком параметров
func (gc *GenerationCache) Store(fingerprint uint64, grid *world.Grid) error {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	if !gc.isReady {
		return ErrCacheClosed
	}

	record := gridRecord{
		Dimensions: grid.Dimensions(),
		Blocks:     gc.codec.Compress(grid.EncodeBlocks()),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сетки: %w", err)
	}

	err = gc.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(fingerprint), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	gc.touch(fingerprint)
	return gc.evict()
}

// touch переносит отпечаток в конец очереди вытеснения
func (gc *GenerationCache) touch(fingerprint uint64) {
	for i, fp := range gc.order {
		if fp == fingerprint {
			gc.order = append(gc.order[:i], gc.order[i+1:]...)
			break
		}
	}
	gc.order = append(gc.order, fingerprint)
}

// evict удаляет самые старые записи сверх лимита
func (gc *GenerationCache) evict() error {
	for len(gc.order) > gc.maxEntries {
		oldest := gc.order[0]
		gc.order = gc.order[1:]
		err := gc.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(cacheKey(oldest))
		})
		if err != nil {
			return fmt.Errorf("ошибка вытеснения из BadgerDB: %w", err)
		}
	}
	return nil
}

// Load возвращает сетку по отпечатку. Второй результат false, если записи нет.
func (gc *GenerationCache) Load(fingerprint uint64) (*world.Grid, bool, error) {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()

	if !gc.isReady {
		return nil, false, ErrCacheClosed
	}

	var data []byte
	err := gc.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	var record gridRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("ошибка десериализации сетки: %w", err)
	}
	raw, err := gc.codec.Decompress(record.Blocks)
	if err != nil {
		return nil, false, err
	}
	grid, err := world.DecodeGrid(record.Dimensions, raw)
	if err != nil {
		return nil, false, fmt.Errorf("повреждённая запись кеша: %w", err)
	}
	return grid, true, nil
}

// Len возвращает количество записей
func (gc *GenerationCache) Len() int {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()
	return len(gc.order)
}

// Close закрывает кеш
func (gc *GenerationCache) Close() error {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	if !gc.isReady {
		return nil
	}

	gc.isReady = false
	gc.codec.Close()
	return gc.db.Close()
}
