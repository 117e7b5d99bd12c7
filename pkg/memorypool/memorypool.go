// Copyright (c) 2021-2024 SigScalr, Inc.
//
// This file is part of SigLens Observability Solution
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package memorypool

import (
	"fmt"
	"sync"
)

// A thread-safe pool of reusable objects, such as accumulator tables.
//
// Items are identified by value, so T is expected to be a pointer type. An
// item is reset when it is put back, so Get always returns either a new item
// or a cleared one.

type Pool[T comparable] struct {
	items   []poolItem[T]
	mutex   sync.Mutex
	newItem func() T
	reset   func(T)
	hits    uint64
	misses  uint64
}

type poolItem[T comparable] struct {
	value T
	inUse bool
}

func NewPool[T comparable](numInitialItems int, newItem func() T, reset func(T)) *Pool[T] {
	if numInitialItems < 0 {
		numInitialItems = 0
	}
	pool := &Pool[T]{
		items:   make([]poolItem[T], 0, numInitialItems),
		mutex:   sync.Mutex{},
		newItem: newItem,
		reset:   reset,
	}

	for i := 0; i < numInitialItems; i++ {
		pool.items = append(pool.items, poolItem[T]{value: newItem(), inUse: false})
	}

	return pool
}

// Returns an idle item, and whether it was reused rather than newly made.
func (self *Pool[T]) Get() (T, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	for i := range self.items {
		if !self.items[i].inUse {
			self.items[i].inUse = true
			self.hits++
			return self.items[i].value, true
		}
	}

	// All items are in use, so make a new item.
	value := self.newItem()
	self.items = append(self.items, poolItem[T]{value: value, inUse: true})
	self.misses++

	return value, false
}

// Put back an item to the pool. Returns error if the item was not obtained
// from the pool or was already returned.
func (self *Pool[T]) Put(value T) error {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	for i := range self.items {
		if self.items[i].value == value {
			if !self.items[i].inUse {
				return fmt.Errorf("Pool.Put: item %v was already returned", value)
			}
			if self.reset != nil {
				self.reset(value)
			}
			self.items[i].inUse = false
			return nil
		}
	}

	return fmt.Errorf("Pool.Put: item %v not found in the pool of %d items", value, len(self.items))
}

func (self *Pool[T]) Len() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return len(self.items)
}

func (self *Pool[T]) NumInUse() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	count := 0
	for i := range self.items {
		if self.items[i].inUse {
			count++
		}
	}
	return count
}

func (self *Pool[T]) Stats() (hits uint64, misses uint64) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return self.hits, self.misses
}
