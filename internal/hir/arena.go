package hir

// Arena stores nodes of one kind. Ids are 1-based; 0 means "no node".
type Arena[T any] struct {
	data []T
}

func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Возвращает индекс нового элемента (1-based).
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	return uint32(len(a.data)) //nolint:gosec // arenas never reach 4G nodes
}

func (a *Arena[T]) Get(index uint32) (T, bool) {
	var zero T
	if index == 0 || int(index) > len(a.data) {
		return zero, false
	}
	return a.data[index-1], true
}

// READONLY
func (a *Arena[T]) Slice() []T {
	return a.data
}

func (a *Arena[T]) Len() uint32 {
	return uint32(len(a.data)) //nolint:gosec // see Allocate
}
