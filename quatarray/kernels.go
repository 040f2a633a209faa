package quatarray

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/quaternion/logging"
	"go.viam.com/quaternion/spatialmath"
	"go.viam.com/quaternion/utils"
)

// ErrUnknownKernel is returned when a kernel name has not been registered.
var ErrUnknownKernel = errors.New("unknown kernel")

type (
	// A UnaryKernel maps one quaternion to another.
	UnaryKernel func(q spatialmath.Quaternion) spatialmath.Quaternion

	// A BinaryKernel combines two quaternions into one.
	BinaryKernel func(p, q spatialmath.Quaternion) spatialmath.Quaternion
)

// A Registry maps names to elementwise kernels. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	unary   map[string]UnaryKernel
	binary  map[string]BinaryKernel
	metrics map[string]spatialmath.DistanceMetric
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		unary:   map[string]UnaryKernel{},
		binary:  map[string]BinaryKernel{},
		metrics: map[string]spatialmath.DistanceMetric{},
	}
}

func (r *Registry) checkFree(name string) {
	_, u := r.unary[name]
	_, b := r.binary[name]
	_, m := r.metrics[name]
	if u || b || m {
		panic(errors.Errorf("trying to register two kernels with the same name: %q", name))
	}
}

// RegisterUnary adds a unary kernel. Registering a name twice panics.
func (r *Registry) RegisterUnary(name string, k UnaryKernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFree(name)
	r.unary[name] = k
}

// RegisterBinary adds a binary kernel. Registering a name twice panics.
func (r *Registry) RegisterBinary(name string, k BinaryKernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFree(name)
	r.binary[name] = k
}

// RegisterMetric adds a distance metric. Registering a name twice panics.
func (r *Registry) RegisterMetric(name string, m spatialmath.DistanceMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFree(name)
	r.metrics[name] = m
}

// Names returns every registered kernel name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.unary)+len(r.binary)+len(r.metrics))
	for name := range r.unary {
		names = append(names, name)
	}
	for name := range r.binary {
		names = append(names, name)
	}
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookupUnary(name string) (UnaryKernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.unary[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKernel, "no unary kernel named %q", name)
	}
	return k, nil
}

func (r *Registry) lookupBinary(name string) (BinaryKernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.binary[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKernel, "no binary kernel named %q", name)
	}
	return k, nil
}

func (r *Registry) lookupMetric(name string) (spatialmath.DistanceMetric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKernel, "no distance metric named %q", name)
	}
	return m, nil
}

// ApplyUnary applies the named kernel to every element of a.
func (r *Registry) ApplyUnary(ctx context.Context, name string, a []spatialmath.Quaternion) ([]spatialmath.Quaternion, error) {
	k, err := r.lookupUnary(name)
	if err != nil {
		return nil, err
	}
	out := make([]spatialmath.Quaternion, len(a))
	if err := utils.ParallelForEach(ctx, len(a), func(i int) {
		out[i] = k(a[i])
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to apply kernel %q", name)
	}
	return out, nil
}

// ApplyBinary applies the named kernel pairwise to a and b. A length one operand is broadcast
// against the other; otherwise the lengths must match.
func (r *Registry) ApplyBinary(ctx context.Context, name string, a, b []spatialmath.Quaternion) ([]spatialmath.Quaternion, error) {
	k, err := r.lookupBinary(name)
	if err != nil {
		return nil, err
	}
	n, err := broadcastLength(len(a), len(b))
	if err != nil {
		return nil, err
	}
	out := make([]spatialmath.Quaternion, n)
	if err := utils.ParallelForEach(ctx, n, func(i int) {
		out[i] = k(broadcastAt(a, i), broadcastAt(b, i))
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to apply kernel %q", name)
	}
	return out, nil
}

// Distances evaluates the named metric pairwise on a and b, broadcasting like ApplyBinary.
func (r *Registry) Distances(ctx context.Context, name string, a, b []spatialmath.Quaternion) ([]float64, error) {
	m, err := r.lookupMetric(name)
	if err != nil {
		return nil, err
	}
	n, err := broadcastLength(len(a), len(b))
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := utils.ParallelForEach(ctx, n, func(i int) {
		out[i] = m(broadcastAt(a, i), broadcastAt(b, i))
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to apply metric %q", name)
	}
	return out, nil
}

func broadcastLength(na, nb int) (int, error) {
	switch {
	case na == nb:
		return na, nil
	case na == 1:
		return nb, nil
	case nb == 1:
		return na, nil
	default:
		return 0, utils.NewLengthMismatchError("second operand", na, nb)
	}
}

func broadcastAt(qs []spatialmath.Quaternion, i int) spatialmath.Quaternion {
	if len(qs) == 1 {
		return qs[0]
	}
	return qs[i]
}

// RegisterBuiltins adds the standard quaternion kernels and metrics to r.
func RegisterBuiltins(r *Registry) {
	r.RegisterBinary("add", spatialmath.Quaternion.Add)
	r.RegisterBinary("subtract", spatialmath.Quaternion.Sub)
	r.RegisterBinary("multiply", spatialmath.Quaternion.Mul)
	r.RegisterBinary("divide", spatialmath.Quaternion.Div)
	r.RegisterBinary("slerp_midpoint", func(p, q spatialmath.Quaternion) spatialmath.Quaternion {
		return spatialmath.Slerp(p, q, 0.5)
	})

	r.RegisterUnary("conjugate", spatialmath.Quaternion.Conj)
	r.RegisterUnary("negative", spatialmath.Quaternion.Neg)
	r.RegisterUnary("exp", spatialmath.Quaternion.Exp)
	r.RegisterUnary("log", spatialmath.Quaternion.Log)
	r.RegisterUnary("normalized", spatialmath.Quaternion.Normalize)
	r.RegisterUnary("inverse", spatialmath.Quaternion.Inverse)
	r.RegisterUnary("square", func(q spatialmath.Quaternion) spatialmath.Quaternion { return q.Mul(q) })
	r.RegisterUnary("sqrt", func(q spatialmath.Quaternion) spatialmath.Quaternion { return q.Pow(0.5) })

	r.RegisterMetric("rotor_chordal", spatialmath.RotorChordalDistance)
	r.RegisterMetric("rotor_intrinsic", spatialmath.RotorIntrinsicDistance)
	r.RegisterMetric("rotation_chordal", spatialmath.RotationChordalDistance)
	r.RegisterMetric("rotation_intrinsic", spatialmath.RotationIntrinsicDistance)
}

var (
	defaultRegistry     = NewRegistry()
	defaultRegistryOnce sync.Once
)

// Register installs the builtin kernels into the default registry. Only the first call has any
// effect; later calls are no-ops.
func Register(logger logging.Logger) {
	defaultRegistryOnce.Do(func() {
		RegisterBuiltins(defaultRegistry)
		logger.Infow("registered quaternion kernels", "count", len(defaultRegistry.Names()))
	})
}

// Default returns the process wide registry, registering the builtin kernels with the global
// logger if that has not happened yet.
func Default() *Registry {
	Register(logging.Global().Sublogger("kernels"))
	return defaultRegistry
}
