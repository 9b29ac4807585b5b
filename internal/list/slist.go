// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package list

// SNode is an intrusive singly-linked list node: one pointer smaller
// than Node, at the cost of O(n) removal and O(n) back-traversal. Embed by
// value and call Init before first use, same as Node.
type SNode[T any] struct {
	next  *SNode[T]
	owner *T
}

// Init binds the node to its owner.
func (n *SNode[T]) Init(owner *T) {
	n.owner = owner
	n.next = nil
}

// Owner returns the record this node is embedded in.
func (n *SNode[T]) Owner() *T {
	return n.owner
}

// Detached reports whether the node is not currently part of any list.
//
// A detached node and a node that is the sole, first element of a list
// both have next == nil, so Detached is only meaningful together with
// tracking membership separately (e.g. the owning SList knows its head).
func (n *SNode[T]) Detached() bool {
	return n.next == nil
}

// SList is a non-circular intrusive singly-linked list (head/tail
// pointers only; unlike DList it does not thread the head into the chain,
// since a dummy head node would cost a second pointer field anyway).
type SList[T any] struct {
	head, tail *SNode[T]
}

// Init resets the list to empty.
func (l *SList[T]) Init() {
	l.head = nil
	l.tail = nil
}

// Empty reports whether the list has no elements.
func (l *SList[T]) Empty() bool {
	return l.head == nil
}

// Size returns the number of elements, O(n).
func (l *SList[T]) Size() int {
	n := 0
	for v := l.head; v != nil; v = v.next {
		n++
	}
	return n
}

// Front returns the first element's owner, or nil if empty.
func (l *SList[T]) Front() *T {
	if l.head == nil {
		return nil
	}
	return l.head.owner
}

// PushFront inserts n at the front of the list in O(1). n must be
// detached.
func (l *SList[T]) PushFront(n *SNode[T]) {
	n.next = l.head
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

// PushBack appends n at the back of the list in O(1). n must be detached.
func (l *SList[T]) PushBack(n *SNode[T]) {
	n.next = nil
	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
}

// PopFront removes and returns the owner of the first element, O(1), or
// nil if empty.
func (l *SList[T]) PopFront() *T {
	if l.head == nil {
		return nil
	}
	n := l.head
	l.head = n.next
	if l.head == nil {
		l.tail = nil
	}
	n.next = nil
	return n.owner
}

// Remove removes n from the list in O(n) (the list must be walked to find
// n's predecessor). It is a no-op if n is not found. Returns whether n was
// found and removed.
func (l *SList[T]) Remove(n *SNode[T]) bool {
	if l.head == n {
		l.head = n.next
		if l.tail == n {
			l.tail = nil
		}
		n.next = nil
		return true
	}
	for v := l.head; v != nil && v.next != nil; v = v.next {
		if v.next == n {
			v.next = n.next
			if l.tail == n {
				l.tail = v
			}
			n.next = nil
			return true
		}
	}
	return false
}

// ForEach iterates front-to-back, calling f on each element's owner.
// Iteration stops early if f returns false.
func (l *SList[T]) ForEach(f func(*T) bool) {
	for v := l.head; v != nil; v = v.next {
		if !f(v.owner) {
			return
		}
	}
}

// ForEachSafeRm iterates front-to-back, calling f with the current node.
// If f returns true for "remove this node", it is unlinked in O(1) during
// the pass (the caller must not separately call Remove on it).
func (l *SList[T]) ForEachSafeRm(f func(n *SNode[T]) (remove bool)) {
	var prev *SNode[T]
	v := l.head
	for v != nil {
		next := v.next
		if f(v) {
			if prev == nil {
				l.head = next
			} else {
				prev.next = next
			}
			if l.tail == v {
				l.tail = prev
			}
			v.next = nil
		} else {
			prev = v
		}
		v = next
	}
}
