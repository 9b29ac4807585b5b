// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package list implements the kernel's intrusive list primitives: a
// circular doubly-linked list with O(1) splice, and a singly-linked list
// for targets that cannot spare the extra pointer. The singly-linked
// SList is not circular: it keeps separate head/tail pointers, its last
// node's next is nil, and its head is not itself a node.
//
// Go has no way to embed a base "node" field at a fixed offset and recover
// the owning record from a bare node pointer without unsafe arithmetic, so
// both lists are generic over the owner type T and a Node[T] carries an
// explicit back-pointer to its owner. The owner still allocates no separate
// list element: Node[T] is meant to be embedded by value inside T, exactly
// like the C struct's embedded link field.
package list

// Node is an intrusive doubly-linked list node. Embed it by value in the
// owning record and call Init once (with a pointer to the owner) before
// the record is ever linked into a DList.
type Node[T any] struct {
	next, prev *Node[T]
	owner      *T
}

// Init binds the node to its owner. Must be called before first use.
func (n *Node[T]) Init(owner *T) {
	n.owner = owner
	n.next = nil
	n.prev = nil
}

// Owner returns the record this node is embedded in.
func (n *Node[T]) Owner() *T {
	return n.owner
}

// Detached reports whether the node is not currently part of any list.
func (n *Node[T]) Detached() bool {
	return n.next == nil && n.prev == nil
}

// DList is a circular intrusive doubly-linked list. Its zero value is not
// ready to use; call Init first. The list head is itself a node, so
// End() conceptually equals &head and is never visited by ForEach.
type DList[T any] struct {
	head Node[T]
}

// Init (re)initializes the list to empty. Must not be called on a list
// that still has attached nodes (those would be orphaned).
func (l *DList[T]) Init() {
	l.head.next = &l.head
	l.head.prev = &l.head
}

// Empty reports whether the list has no elements.
func (l *DList[T]) Empty() bool {
	return l.head.next == &l.head
}

// Size returns the number of elements, O(n).
func (l *DList[T]) Size() int {
	n := 0
	for v := l.head.next; v != &l.head; v = v.next {
		n++
	}
	return n
}

// Front returns the first element's owner, or nil if empty.
func (l *DList[T]) Front() *T {
	if l.Empty() {
		return nil
	}
	return l.head.next.owner
}

// Back returns the last element's owner, or nil if empty.
func (l *DList[T]) Back() *T {
	if l.Empty() {
		return nil
	}
	return l.head.prev.owner
}

// PushFront inserts n at the front of the list. n must be detached.
func (l *DList[T]) PushFront(n *Node[T]) {
	l.insertAfter(&l.head, n)
}

// PushBack inserts n at the back (end) of the list. n must be detached.
func (l *DList[T]) PushBack(n *Node[T]) {
	l.insertBefore(&l.head, n)
}

// InsertBefore inserts n immediately before mark, which must already be a
// member of this list. n must be detached.
func (l *DList[T]) InsertBefore(mark, n *Node[T]) {
	l.insertBefore(mark, n)
}

// InsertAfter inserts n immediately after mark, which must already be a
// member of this list. n must be detached.
func (l *DList[T]) InsertAfter(mark, n *Node[T]) {
	l.insertAfter(mark, n)
}

func (l *DList[T]) insertBefore(mark, n *Node[T]) {
	n.prev = mark.prev
	n.next = mark
	mark.prev.next = n
	mark.prev = n
}

func (l *DList[T]) insertAfter(mark, n *Node[T]) {
	n.next = mark.next
	n.prev = mark
	mark.next.prev = n
	mark.next = n
}

// PopFront removes and returns the owner of the first element, or nil if
// the list is empty.
func (l *DList[T]) PopFront() *T {
	if l.Empty() {
		return nil
	}
	n := l.head.next
	l.Erase(n)
	return n.owner
}

// PopBack removes and returns the owner of the last element, or nil if the
// list is empty.
func (l *DList[T]) PopBack() *T {
	if l.Empty() {
		return nil
	}
	n := l.head.prev
	l.Erase(n)
	return n.owner
}

// Erase removes n from the list. n must currently be a member of this
// list. After Erase, n is detached and may be reused.
func (l *DList[T]) Erase(n *Node[T]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
}

// ForEach iterates in front-to-back order, calling f on each element's
// owner. Iteration stops early if f returns false. ForEach does not
// support erasing the current element from f; use ForEachSafe for that.
func (l *DList[T]) ForEach(f func(*T) bool) {
	for v := l.head.next; v != &l.head; v = v.next {
		if !f(v.owner) {
			return
		}
	}
}

// ForEachSafe iterates in front-to-back order, calling f with both the
// list and the current node, and supports f erasing that exact node
// (e.g. via l.Erase(n)) during the callback. It does not support erasing
// any other node.
func (l *DList[T]) ForEachSafe(f func(l *DList[T], n *Node[T]) bool) {
	v := l.head.next
	for v != &l.head {
		next := v.next
		if !f(l, v) {
			return
		}
		v = next
	}
}
