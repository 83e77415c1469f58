// Package filekv implements the key-value store on a single local JSON
// file. The whole mapping is loaded on open and flushed back on every
// mutation, so a crash never loses more than the in-flight write.
package filekv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileKV is a file backed key-value store.
type FileKV struct {
	fileName string

	mu    sync.Mutex
	cache map[string]string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache map[string]string) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *map[string]string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(cache)
}

// New opens the store file, creating an empty one when it does not
// exist. A file that exists but does not parse is an error so a
// corrupt store is never mistaken for an empty state.
func New(fileName string) (*FileKV, error) {
	db := &FileKV{
		fileName: fileName,
		cache:    map[string]string{},
	}

	err := parseJSONFile(db.fileName, &db.cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("parsing store file %q: %w", fileName, err)
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.cache); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Get returns the blob stored under key.
func (db *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	blob, found := db.cache[key]
	return blob, found, nil
}

// Set stores the blob under key and flushes the file.
func (db *FileKV) Set(ctx context.Context, key, blob string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.cache[key] = blob
	return writeToJSONFile(db.fileName, db.cache)
}

// Delete removes the key and flushes the file.
func (db *FileKV) Delete(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, found := db.cache[key]; !found {
		return nil
	}
	delete(db.cache, key)
	return writeToJSONFile(db.fileName, db.cache)
}

// Ping reports whether the store file is still accessible.
func (db *FileKV) Ping(ctx context.Context) error {
	_, err := os.Stat(db.fileName)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close flushes the cache to the store file.
func (db *FileKV) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return writeToJSONFile(db.fileName, db.cache)
}
