/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package store persists report runs and the simulated RRAM array in a bolt
// database.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-daric/pkg/log"
)

const (
	RunsBucket  = "runs"
	RramBucket  = "rram"
	WordsBucket = "words"
	MetaKey     = "meta"
)

// RunMeta describes one boot run.
type RunMeta struct {
	ID       uint64    `json:"id"`
	Target   string    `json:"target"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`
	Words    int       `json:"words"`
}

type Run struct {
	RunMeta
	Stream []uint32 `json:"stream"`
}

type Store struct {
	DB *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{RunsBucket, RramBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close ...
func (s *Store) Close() {
	if err := s.DB.Close(); err != nil {
		log.Error("Error while closing database: %s", err)
	}
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func runBucket(tx *bbolt.Tx, id uint64) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(RunsBucket)).Bucket(uint64ToByte(id))
	if b == nil {
		return nil, ErrUnknownRun{ID: id}
	}
	return b, nil
}

func putMeta(b *bbolt.Bucket, meta *RunMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return b.Put([]byte(MetaKey), data)
}

func getMeta(b *bbolt.Bucket) (*RunMeta, error) {
	data := b.Get([]byte(MetaKey))
	if data == nil {
		return nil, errors.New("Run description not found")
	}
	meta := &RunMeta{}
	if err := yaml.Unmarshal(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// NewRun allocates the next run id and returns a sink recording into it.
func (s *Store) NewRun(target string) (*RunLog, error) {
	meta := &RunMeta{Target: target, Started: time.Now().UTC()}
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(RunsBucket))
		id, err := runs.NextSequence()
		if err != nil {
			return err
		}
		meta.ID = id
		b, err := runs.CreateBucket(uint64ToByte(id))
		if err != nil {
			return err
		}
		if _, err := b.CreateBucket([]byte(WordsBucket)); err != nil {
			return err
		}
		return putMeta(b, meta)
	}); err != nil {
		return nil, err
	}
	log.Info("Recording run %d for target %s", meta.ID, target)
	return &RunLog{store: s, id: meta.ID}, nil
}

// appendWords stores words after the first index words of run id in one
// transaction.
func (s *Store) appendWords(id uint64, index uint32, words []uint32) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := runBucket(tx, id)
		if err != nil {
			return err
		}
		wb := b.Bucket([]byte(WordsBucket))
		for i, w := range words {
			if err := wb.Put(uint32ToByte(index+uint32(i)), uint32ToByte(w)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FinishRun stamps the run with its end time and word count.
func (s *Store) FinishRun(id uint64) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := runBucket(tx, id)
		if err != nil {
			return err
		}
		meta, err := getMeta(b)
		if err != nil {
			return err
		}
		meta.Finished = time.Now().UTC()
		meta.Words = 0
		if err := b.Bucket([]byte(WordsBucket)).ForEach(func(_, _ []byte) error {
			meta.Words++
			return nil
		}); err != nil {
			return err
		}
		return putMeta(b, meta)
	})
}

// Runs lists every recorded run, oldest first.
func (s *Store) Runs() ([]*RunMeta, error) {
	var runs []*RunMeta
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RunsBucket)).ForEach(func(k, _ []byte) error {
			b := tx.Bucket([]byte(RunsBucket)).Bucket(k)
			if b == nil {
				return nil
			}
			meta, err := getMeta(b)
			if err != nil {
				return fmt.Errorf("run %d: %w", binary.BigEndian.Uint64(k), err)
			}
			runs = append(runs, meta)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return runs, nil
}

// Run returns one run with its word stream.
func (s *Store) Run(id uint64) (*Run, error) {
	run := &Run{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b, err := runBucket(tx, id)
		if err != nil {
			return err
		}
		meta, err := getMeta(b)
		if err != nil {
			return err
		}
		run.RunMeta = *meta
		return b.Bucket([]byte(WordsBucket)).ForEach(func(_, v []byte) error {
			run.Stream = append(run.Stream, binary.BigEndian.Uint32(v))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	run.Words = len(run.Stream)
	return run, nil
}

// RunLog is a report sink recording one run. Words are kept in memory and
// written out by Finish, so reporting never waits on the database.
type RunLog struct {
	store   *Store
	id      uint64
	mu      sync.Mutex
	flushed uint32
	pending []uint32
}

func (l *RunLog) ID() uint64 {
	return l.id
}

func (l *RunLog) Report(word uint32) {
	l.mu.Lock()
	l.pending = append(l.pending, word)
	l.mu.Unlock()
}

// Finish stores the words reported so far and stamps the run.
func (l *RunLog) Finish() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.appendWords(l.id, l.flushed, l.pending); err != nil {
		log.Error("Error while recording %d words of run %d: %s", len(l.pending), l.id, err)
		return err
	}
	l.flushed += uint32(len(l.pending))
	l.pending = nil
	return l.store.FinishRun(l.id)
}
