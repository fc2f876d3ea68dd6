package grid

// Neighbors returns component c of cell (x, y) and of its left, right, top
// (y+1) and bottom (y-1) neighbours, clamped at the edges.
func (f *Field) Neighbors(x, y, c int) (C, L, R, T, B float32) {
	C = f.At(x, y, c)
	L = f.At(x-1, y, c)
	R = f.At(x+1, y, c)
	T = f.At(x, y+1, c)
	B = f.At(x, y-1, c)
	return
}

// Neighbors2 is Neighbors for both components of a two component field.
func (f *Field) Neighbors2(x, y int) (L, R, T, B [2]float32) {
	var (
		l, r, t, b = f.Cell(f.clamp(x-1, y)), f.Cell(f.clamp(x+1, y)), f.Cell(f.clamp(x, y+1)), f.Cell(f.clamp(x, y-1))
	)
	L = [2]float32{l[0], l[1]}
	R = [2]float32{r[0], r[1]}
	T = [2]float32{t[0], t[1]}
	B = [2]float32{b[0], b[1]}
	return
}
