package core

// LayerStack is an ordered list of layers. ForEach walks bottom to top;
// ForEachReverse walks top to bottom and stops when f returns true.
type LayerStack[T any] struct{ list []T }

func (ls *LayerStack[T]) Push(l T) { ls.list = append(ls.list, l) }
func (ls *LayerStack[T]) Pop() (T, bool) {
	var zero T
	if len(ls.list) == 0 {
		return zero, false
	}
	i := len(ls.list) - 1
	l := ls.list[i]
	ls.list = ls.list[:i]
	return l, true
}

func (ls *LayerStack[T]) Len() int { return len(ls.list) }

func (ls *LayerStack[T]) ForEach(f func(T) error) error {
	for _, l := range ls.list {
		if err := f(l); err != nil {
			return err
		}
	}
	return nil
}

func (ls *LayerStack[T]) ForEachReverse(f func(T) bool) {
	for i := len(ls.list) - 1; i >= 0; i-- {
		if stop := f(ls.list[i]); stop {
			break
		}
	}
}
