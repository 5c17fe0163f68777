// Package queue is a FIFO used for breadth-first walks.
package queue

type element[T any] struct {
	value T
	next  *element[T]
}

type Queue[T any] struct {
	head   *element[T]
	tail   *element[T]
	length int
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(values ...T) {
	for _, v := range values {
		e := &element[T]{value: v}

		if q.length == 0 {
			q.head = e
		} else {
			q.tail.next = e
		}

		q.tail = e
		q.length++
	}
}

// Pop removes the oldest value. ok is false on an empty queue.
func (q *Queue[T]) Pop() (v T, ok bool) {
	if q.length == 0 {
		return v, false
	}

	e := q.head
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	q.length--
	return e.value, true
}

func (q *Queue[T]) Len() int {
	return q.length
}

func (q *Queue[T]) Values() (values []T) {
	for cur := q.head; cur != nil; cur = cur.next {
		values = append(values, cur.value)
	}
	return
}

func (q *Queue[T]) Empty() bool {
	return q.length == 0
}
