package instruction

import (
	"github.com/google/angle-sub000/internal/ir"
)

// floats lists the components of a float scalar or vector constant.
func floats(m *ir.Meta, id ir.ConstantID) []float32 {
	c := m.Constant(id)
	if !c.IsComposite() {
		return []float32{c.AsFloat()}
	}
	out := make([]float32, len(c.Elements))
	for i, e := range c.Elements {
		out[i] = m.Constant(e).AsFloat()
	}
	return out
}

// makeFloats builds a float scalar or vector constant of the given type.
func makeFloats(m *ir.Meta, typeID ir.TypeID, values []float32) ir.ConstantID {
	if m.Type(typeID).IsScalar() {
		return m.ConstantFloat(values[0])
	}
	elems := make([]ir.ConstantID, len(values))
	for i, v := range values {
		elems[i] = m.ConstantFloat(v)
	}
	return m.ConstantComposite(typeID, elems)
}

// matrixColumns returns the columns of a matrix constant, m[column][row].
func matrixColumns(m *ir.Meta, id ir.ConstantID) [][]float32 {
	c := m.Constant(id)
	columns := make([][]float32, len(c.Elements))
	for i, e := range c.Elements {
		columns[i] = floats(m, e)
	}
	return columns
}

func makeMatrix(m *ir.Meta, typeID ir.TypeID, columns [][]float32) ir.ConstantID {
	columnType := m.Type(typeID).Elem
	elems := make([]ir.ConstantID, len(columns))
	for i, column := range columns {
		elems[i] = makeFloats(m, columnType, column)
	}
	return m.ConstantComposite(typeID, elems)
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func transpose(columns [][]float32) [][]float32 {
	if len(columns) == 0 {
		return nil
	}
	out := make([][]float32, len(columns[0]))
	for r := range out {
		out[r] = make([]float32, len(columns))
		for c := range columns {
			out[r][c] = columns[c][r]
		}
	}
	return out
}

func foldTranspose(m *ir.Meta, id ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return makeMatrix(m, result, transpose(matrixColumns(m, id)))
}

func foldDot(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantFloat(dot(floats(m, l), floats(m, r)))
}

func vectorTimesColumns(v []float32, columns [][]float32) []float32 {
	out := make([]float32, len(columns))
	for i, column := range columns {
		out[i] = dot(v, column)
	}
	return out
}

func foldVectorTimesMatrix(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return makeFloats(m, result, vectorTimesColumns(floats(m, l), matrixColumns(m, r)))
}

func foldMatrixTimesVector(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return makeFloats(m, result, vectorTimesColumns(floats(m, r), transpose(matrixColumns(m, l))))
}

func foldMatrixTimesMatrix(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	rows := transpose(matrixColumns(m, l))
	rhs := matrixColumns(m, r)
	columns := make([][]float32, len(rhs))
	for c, column := range rhs {
		columns[c] = vectorTimesColumns(column, rows)
	}
	return makeMatrix(m, result, columns)
}

// minor drops column col and row row of a square matrix.
func minor(a [][]float64, col, row int) [][]float64 {
	out := make([][]float64, 0, len(a)-1)
	for c := range a {
		if c == col {
			continue
		}
		column := make([]float64, 0, len(a)-1)
		for r := range a[c] {
			if r != row {
				column = append(column, a[c][r])
			}
		}
		out = append(out, column)
	}
	return out
}

func determinant(a [][]float64) float64 {
	switch len(a) {
	case 1:
		return a[0][0]
	case 2:
		return a[0][0]*a[1][1] - a[1][0]*a[0][1]
	}
	var det float64
	sign := 1.0
	for c := range a {
		det += sign * a[c][0] * determinant(minor(a, c, 0))
		sign = -sign
	}
	return det
}

func toFloat64(columns [][]float32) [][]float64 {
	out := make([][]float64, len(columns))
	for c, column := range columns {
		out[c] = make([]float64, len(column))
		for r, v := range column {
			out[c][r] = float64(v)
		}
	}
	return out
}

func foldDeterminant(m *ir.Meta, id ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantFloat(float32(determinant(toFloat64(matrixColumns(m, id)))))
}

// foldInverse computes the adjugate divided by the determinant. A singular matrix has no inverse
// and folds to zero.
func foldInverse(m *ir.Meta, id ir.ConstantID, result ir.TypeID) ir.ConstantID {
	a := toFloat64(matrixColumns(m, id))
	det := determinant(a)
	scale := 0.0
	if det != 0 {
		scale = 1 / det
	}
	n := len(a)
	columns := make([][]float32, n)
	for c := range columns {
		columns[c] = make([]float32, n)
		for r := range columns[c] {
			cofactor := determinant(minor(a, r, c))
			if (c+r)%2 == 1 {
				cofactor = -cofactor
			}
			columns[c][r] = float32(cofactor * scale)
		}
	}
	return makeMatrix(m, result, columns)
}
