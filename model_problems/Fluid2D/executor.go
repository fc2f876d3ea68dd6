package Fluid2D

import (
	"sync"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/utils"
)

// Kernel computes the value of output cell (x, y) into out, which holds the
// cell's components. Kernels read their inputs only from fields they close
// over, never from the field being written.
type Kernel func(x, y int, out []float32)

// parallelThreshold is the cell count below which a pass runs on the calling goroutine.
const parallelThreshold = 64 * 64

// Executor applies a Kernel to every cell of an output field, splitting the
// rows into PartitionMap buckets with one goroutine per bucket.
type Executor struct {
	ProcLimit  int
	partitions map[int]*utils.PartitionMap // keyed by row count
}

func NewExecutor(ProcLimit int) (e *Executor) {
	e = &Executor{
		ProcLimit:  ProcLimit,
		partitions: make(map[int]*utils.PartitionMap),
	}
	return
}

func (e *Executor) partitionRows(H int) (pm *utils.PartitionMap) {
	var (
		ok bool
	)
	if pm, ok = e.partitions[H]; !ok {
		pm = utils.NewPartitionMap(utils.ParallelDegree(e.ProcLimit, H), H)
		e.partitions[H] = pm
	}
	return
}

func (e *Executor) Run(out *grid.Field, k Kernel) {
	var (
		W, H = out.Dims()
		wg   = sync.WaitGroup{}
	)
	rows := func(yMin, yMax int) {
		for y := yMin; y < yMax; y++ {
			for x := 0; x < W; x++ {
				k(x, y, out.Cell(x, y))
			}
		}
	}
	if W*H < parallelThreshold {
		rows(0, H)
		return
	}
	pm := e.partitionRows(H)
	if pm.ParallelDegree == 1 {
		rows(0, H)
		return
	}
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			yMin, yMax := pm.GetBucketRange(np)
			rows(yMin, yMax)
			wg.Done()
		}(np)
	}
	wg.Wait()
}
