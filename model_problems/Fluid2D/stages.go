package Fluid2D

import (
	"math"

	"github.com/notargets/gofluid/grid"
)

// vorticityEpsilon keeps the confinement direction finite where |curl| is flat.
const vorticityEpsilon = 1e-4

// computeCurl writes the scalar vorticity of vel into curl.
func (s *Solver) computeCurl(vel, curl *grid.Field) {
	s.exec.Run(curl, func(x, y int, out []float32) {
		L, R, T, B := vel.Neighbors2(x, y)
		out[0] = 0.5 * ((R[1] - L[1]) - (T[0] - B[0]))
	})
}

// applyVorticity pushes velocity along the gradient of |curl|, re-injecting
// the small scale rotation lost to numerical diffusion.
func (s *Solver) applyVorticity(vel *grid.DoubleBuffer, curl *grid.Field, strength, dt float32) {
	var (
		src = vel.Read
	)
	s.exec.Run(vel.Write, func(x, y int, out []float32) {
		C, L, R, T, B := curl.Neighbors(x, y, 0)
		fx := 0.5 * (abs32(T) - abs32(B))
		fy := 0.5 * (abs32(R) - abs32(L))
		length := float32(math.Sqrt(float64(fx*fx+fy*fy))) + vorticityEpsilon
		scale := strength * C * dt / length
		fx *= scale
		fy *= -scale
		v := src.Cell(x, y)
		out[0] = v[0] + fx
		out[1] = v[1] + fy
	})
	vel.Swap()
}

// advect moves q along vel by back-tracing each cell of q through the
// velocity field. Offsets are measured in velocity texels, so q may have a
// different resolution from vel.
func (s *Solver) advect(vel *grid.Field, q *grid.DoubleBuffer, dt, dissipation float32) {
	var (
		src    = q.Read
		dst    = q.Write
		nc     = dst.Components()
		tx, ty = vel.TexelSize()
	)
	s.exec.Run(dst, func(x, y int, out []float32) {
		u, v := dst.UV(x, y)
		cu := u - dt*vel.SampleBilinear(u, v, 0)*tx
		cv := v - dt*vel.SampleBilinear(u, v, 1)*ty
		for c := 0; c < nc; c++ {
			out[c] = dissipation * src.SampleBilinear(cu, cv, c)
		}
	})
	q.Swap()
}

func (s *Solver) computeDivergence(vel, div *grid.Field) {
	s.exec.Run(div, func(x, y int, out []float32) {
		L, R, T, B := vel.Neighbors2(x, y)
		out[0] = 0.5 * ((R[0] - L[0]) + (T[1] - B[1]))
	})
}

// solvePressure runs a fixed number of Jacobi sweeps on the pressure Poisson
// equation. The starting guess is the previous frame's pressure scaled by
// retention. Each sweep reads only the previous sweep's full field.
func (s *Solver) solvePressure(p *grid.DoubleBuffer, div *grid.Field, iterations int, retention float32) {
	p.Read.Scale(retention)
	for it := 0; it < iterations; it++ {
		src := p.Read
		s.exec.Run(p.Write, func(x, y int, out []float32) {
			_, L, R, T, B := src.Neighbors(x, y, 0)
			out[0] = 0.25 * (L + R + T + B - div.At(x, y, 0))
		})
		p.Swap()
	}
}

// subtractGradient removes the pressure gradient from vel, using the same
// half-weighted central difference as computeDivergence.
func (s *Solver) subtractGradient(p *grid.Field, vel *grid.DoubleBuffer) {
	var (
		src = vel.Read
	)
	s.exec.Run(vel.Write, func(x, y int, out []float32) {
		_, L, R, T, B := p.Neighbors(x, y, 0)
		v := src.Cell(x, y)
		out[0] = v[0] - 0.5*(R-L)
		out[1] = v[1] - 0.5*(T-B)
	})
	vel.Swap()
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
