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

package store

import (
	"encoding/binary"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-daric/pkg/log"
)

// LoadPages hands every stored RRAM page to fn. The slice is only valid
// during the call.
func (s *Store) LoadPages(fn func(addr uint32, data []byte)) error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RramBucket)).ForEach(func(k, v []byte) error {
			fn(binary.BigEndian.Uint32(k), v)
			return nil
		})
	})
}

// StorePage replaces one RRAM page.
func (s *Store) StorePage(addr uint32, data []byte) error {
	log.Debug("Storing RRAM page: Addr: %x", addr)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RramBucket)).Put(uint32ToByte(addr), data)
	})
}

// ErasePages drops the whole RRAM image.
func (s *Store) ErasePages() error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(RramBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(RramBucket))
		return err
	})
}
