package gdbox2d

// List is an insertion ordered membership list. Nodes live in an arena
// slice and are linked by index, so a member can unlink itself (or others)
// while the list is being walked.
type List[T comparable] struct {
	nodes []listNode[T]
	free  []int
	index map[T]int
	head  int
	tail  int
	count int
}

type listNode[T comparable] struct {
	value      T
	prev, next int
}

const listEnd = -1

func NewList[T comparable]() *List[T] {
	return &List[T]{index: map[T]int{}, head: listEnd, tail: listEnd}
}

func (l *List[T]) Len() int {
	return l.count
}

func (l *List[T]) Contains(v T) bool {
	_, ok := l.index[v]
	return ok
}

// Add appends v. Returns false if v is already a member.
func (l *List[T]) Add(v T) bool {
	if l.Contains(v) {
		return false
	}
	node := listNode[T]{value: v, prev: l.tail, next: listEnd}
	var i int
	if n := len(l.free); n > 0 {
		i = l.free[n-1]
		l.free = l.free[:n-1]
		l.nodes[i] = node
	} else {
		i = len(l.nodes)
		l.nodes = append(l.nodes, node)
	}
	if l.tail != listEnd {
		l.nodes[l.tail].next = i
	} else {
		l.head = i
	}
	l.tail = i
	l.index[v] = i
	l.count++
	return true
}

// Remove unlinks v. Returns false if v was not a member.
func (l *List[T]) Remove(v T) bool {
	i, ok := l.index[v]
	if !ok {
		return false
	}
	node := l.nodes[i]
	if node.prev != listEnd {
		l.nodes[node.prev].next = node.next
	} else {
		l.head = node.next
	}
	if node.next != listEnd {
		l.nodes[node.next].prev = node.prev
	} else {
		l.tail = node.prev
	}
	var zero T
	l.nodes[i] = listNode[T]{value: zero, prev: listEnd, next: listEnd}
	l.free = append(l.free, i)
	delete(l.index, v)
	l.count--
	return true
}

// First returns the head of the list.
func (l *List[T]) First() (T, bool) {
	if l.head == listEnd {
		var zero T
		return zero, false
	}
	return l.nodes[l.head].value, true
}

// PopFront removes and returns the head of the list.
func (l *List[T]) PopFront() (T, bool) {
	v, ok := l.First()
	if ok {
		l.Remove(v)
	}
	return v, ok
}

// Values returns the members in list order.
func (l *List[T]) Values() []T {
	out := make([]T, 0, l.count)
	for i := l.head; i != listEnd; i = l.nodes[i].next {
		out = append(out, l.nodes[i].value)
	}
	return out
}

// Each calls f for every member present when the walk starts. Members
// removed by an earlier callback are skipped; members added during the
// walk are not visited.
func (l *List[T]) Each(f func(T)) {
	for _, v := range l.Values() {
		if l.Contains(v) {
			f(v)
		}
	}
}

func (l *List[T]) Clear() {
	l.nodes = l.nodes[:0]
	l.free = l.free[:0]
	clear(l.index)
	l.head = listEnd
	l.tail = listEnd
	l.count = 0
}
