// Package dlist provides a generic intrusive doubly-linked list: link
// pointers live inside a Node[T] value the caller embeds in (or allocates
// alongside) its own storage, rather than in a separately-heap-allocated
// wrapper. The list performs no allocation on insert and no deallocation on
// remove — the caller owns every Node for as long as it is linked.
package dlist

// Node holds one element's sibling links plus its payload. A freshly
// constructed Node is self-linked (next == prev == itself); it must be
// self-linked again before it is discarded, which Remove guarantees.
type Node[T any] struct {
	next, prev *Node[T]
	Value      T
}

// NewNode constructs a self-linked Node wrapping v, ready to be inserted
// into a List.
func NewNode[T any](v T) *Node[T] {
	n := &Node[T]{Value: v}
	n.next, n.prev = n, n
	return n
}

// List is the list head; an empty list's head is self-linked exactly like
// an unlinked Node.
type List[T any] struct {
	head Node[T]
	size int
}

// New constructs an empty list.
func New[T any]() *List[T] {
	l := &List[T]{}
	l.head.next = &l.head
	l.head.prev = &l.head
	return l
}

// Size returns the number of linked (non-head) nodes.
func (l *List[T]) Size() int { return l.size }

// IsEmpty reports whether the list has no linked nodes.
func (l *List[T]) IsEmpty() bool { return l.size == 0 }

// First returns the first node, or nil if the list is empty.
func (l *List[T]) First() *Node[T] {
	if l.IsEmpty() {
		return nil
	}
	return l.head.next
}

// Last returns the last node, or nil if the list is empty.
func (l *List[T]) Last() *Node[T] {
	if l.IsEmpty() {
		return nil
	}
	return l.head.prev
}

// insert links node immediately before before. O(1), no allocation.
func (l *List[T]) insert(before, node *Node[T]) {
	node.prev = before.prev
	node.next = before
	before.prev.next = node
	before.prev = node
	l.size++
}

// InsertFirst links node as the new head element.
func (l *List[T]) InsertFirst(node *Node[T]) {
	l.insert(l.head.next, node)
}

// InsertLast links node as the new tail element.
func (l *List[T]) InsertLast(node *Node[T]) {
	l.insert(&l.head, node)
}

// InsertBefore links node immediately before ref, which must already belong
// to this list.
func (l *List[T]) InsertBefore(ref, node *Node[T]) {
	l.insert(ref, node)
}

// InsertAfter links node immediately after ref, which must already belong
// to this list.
func (l *List[T]) InsertAfter(ref, node *Node[T]) {
	l.insert(ref.next, node)
}

// Remove unlinks node from the list and re-self-links it, restoring the
// invariant a node must satisfy before its storage is reused or discarded.
// No deallocation is performed — the caller continues to own node.
func (l *List[T]) Remove(node *Node[T]) {
	node.prev.next = node.next
	node.next.prev = node.prev
	node.next, node.prev = node, node
	l.size--
}

// RemoveFirst unlinks and returns the first node, or nil, false if empty.
func (l *List[T]) RemoveFirst() (*Node[T], bool) {
	if l.IsEmpty() {
		return nil, false
	}
	n := l.head.next
	l.Remove(n)
	return n, true
}

// RemoveLast unlinks and returns the last node, or nil, false if empty.
func (l *List[T]) RemoveLast() (*Node[T], bool) {
	if l.IsEmpty() {
		return nil, false
	}
	n := l.head.prev
	l.Remove(n)
	return n, true
}

// Iterator walks a List without mutating it. The zero value is not usable;
// obtain one via List.Begin/List.End.
type Iterator[T any] struct {
	list *List[T]
	cur  *Node[T]
}

// Begin returns an iterator positioned at the first element.
func (l *List[T]) Begin() Iterator[T] {
	return Iterator[T]{list: l, cur: l.head.next}
}

// End returns an iterator positioned one-past-the-last element (the head
// sentinel), the canonical "done" position for forward iteration.
func (l *List[T]) End() Iterator[T] {
	return Iterator[T]{list: l, cur: &l.head}
}

// Next advances the iterator forward.
func (it *Iterator[T]) Next() {
	it.cur = it.cur.next
}

// Prev moves the iterator backward.
func (it *Iterator[T]) Prev() {
	it.cur = it.cur.prev
}

// Value returns a pointer to the current element's payload.
func (it *Iterator[T]) Value() *T {
	return &it.cur.Value
}

// Equal reports whether two iterators reference the same node; comparing
// iterators from different lists is a programming error.
func (it Iterator[T]) Equal(other Iterator[T]) bool {
	return it.cur == other.cur
}

// RemoveIterator drains a List, unlinking and yielding each element without
// invalidating its own position (spec.md §8 property 7: "the removing
// iterator empties the list").
type RemoveIterator[T any] struct {
	list    *List[T]
	forward bool
}

// RemoveIteratorForward returns a draining iterator that yields elements
// from the head.
func (l *List[T]) RemoveIteratorForward() RemoveIterator[T] {
	return RemoveIterator[T]{list: l, forward: true}
}

// RemoveIteratorBackward returns a draining iterator that yields elements
// from the tail.
func (l *List[T]) RemoveIteratorBackward() RemoveIterator[T] {
	return RemoveIterator[T]{list: l, forward: false}
}

// Next unlinks and returns the next element in the iterator's direction, or
// false once the list is empty.
func (it *RemoveIterator[T]) Next() (*T, bool) {
	var n *Node[T]
	var ok bool
	if it.forward {
		n, ok = it.list.RemoveFirst()
	} else {
		n, ok = it.list.RemoveLast()
	}
	if !ok {
		return nil, false
	}
	return &n.Value, true
}
