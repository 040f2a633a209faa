package utils

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/quaternion/logging"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

// ParallelThreshold is the smallest amount of work that ParallelForEach will split
// across goroutines. Anything smaller runs on the calling goroutine.
var ParallelThreshold = 256

func init() {
	ParallelFactor = defaultParallelFactor(ParallelFactor)
	ConfigureParallelism(logging.Global().Sublogger("parallel"))
}

func defaultParallelFactor(procs int) int {
	if procs <= 0 {
		procs = 1
	}
	quarterProcs := float64(procs) * .25
	if quarterProcs > 8 {
		procs = int(quarterProcs)
	}
	return procs
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group size.
	BeforeParallelGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel parallelizes the given size of work over multiple workers. Each worker
// receives a contiguous range [from, to) of work numbers. Panics in workers are captured
// and returned as a combined error once every group has finished.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if totalSize <= 0 {
		return nil
	}
	numGroups := ParallelFactor
	if numGroups <= 0 {
		numGroups = 1
	}
	if numGroups > totalSize {
		numGroups = totalSize
	}
	groupSize := int(math.Floor(float64(totalSize) / float64(numGroups)))
	extra := totalSize % numGroups

	if before != nil {
		before(numGroups)
	}

	var (
		wait       sync.WaitGroup
		errMu      sync.Mutex
		bigError   error
		storePanic = func(thePanic interface{}) {
			errMu.Lock()
			defer errMu.Unlock()
			bigError = multierr.Combine(bigError, newGroupPanicError(thePanic))
		}
	)
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		goutils.PanicCapturingGo(func() {
			defer wait.Done()
			defer func() {
				if thePanic := recover(); thePanic != nil {
					storePanic(thePanic)
				}
			}()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == (numGroups - 1) {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := (groupSize * (groupNum + 1)) + thisExtra
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return bigError
}

// ParallelForEach calls f once for every index in [0, size). Work at or above
// ParallelThreshold is split across ParallelFactor goroutines; each index is visited by
// exactly one goroutine so f may write to index-addressed output without locking.
// A panic in f is returned as an error on both the serial and the parallel path.
func ParallelForEach(ctx context.Context, size int, f func(i int)) error {
	if size < ParallelThreshold || ParallelFactor <= 1 {
		return serialForEach(ctx, size, f)
	}
	return GroupWorkParallel(ctx, size, nil, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		return func(memberNum, workNum int) {
			f(workNum)
		}, nil
	})
}

func serialForEach(ctx context.Context, size int, f func(i int)) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	defer func() {
		if thePanic := recover(); thePanic != nil {
			err = multierr.Combine(err, newGroupPanicError(thePanic))
		}
	}()
	for i := 0; i < size; i++ {
		f(i)
	}
	return nil
}

func newGroupPanicError(thePanic interface{}) error {
	return fmt.Errorf("got panic doing group work in parallel: %v", thePanic)
}
