package item

import "errors"

// SkipChildren can be returned from a WalkFunc visiting a folder to leave its
// children out of the walk.
var SkipChildren = errors.New("skip children")

// WalkFunc is called once per item reached by Walk.
type WalkFunc func(it Item) error

// Walk visits root and all of its descendants using an explicit stack, so
// arbitrarily deep trees do not grow the goroutine stack. Visit order is
// pre-order but otherwise unspecified. The first non-nil error other than
// SkipChildren stops the walk and is returned.
func Walk(root Item, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	stack := []Item{root}
	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]

		err := fn(current)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if folder, ok := current.(*Folder); ok {
			for i := len(folder.Children) - 1; i >= 0; i-- {
				if folder.Children[i] != nil {
					stack = append(stack, folder.Children[i])
				}
			}
		}
	}
	return nil
}

// Count returns the number of items in the tree rooted at root.
func Count(root Item) int {
	n := 0
	_ = Walk(root, func(Item) error {
		n++
		return nil
	})
	return n
}
