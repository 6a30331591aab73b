package registry

import (
	"errors"
	"fmt"
	"reflect"

	"rodigy/internal/model"
)

var ErrEmptyParameters = errors.New("optimizer got an empty parameter list")

type base struct {
	name   string
	params []model.Parameter
	hyper  model.Params
}

func (b *base) Name() string { return b.name }

// Hyperparameters returns a copy of the bound keyword arguments, defaults included.
func (b *base) Hyperparameters() model.Params { return b.hyper.Clone() }

func (b *base) Parameters() []model.Parameter {
	return append([]model.Parameter(nil), b.params...)
}

func (b *base) init(other base) { *b = other }

type optimizerPtr[T any] interface {
	*T
	Optimizer
	init(base)
}

type SGD struct{ base }
type Adam struct{ base }
type AdamW struct{ base }
type AdamP struct{ base }
type AdaBelief struct{ base }
type AdaBound struct{ base }
type A2Grad struct{ base }
type RAdam struct{ base }
type Lamb struct{ base }
type Lion struct{ base }
type Prodigy struct{ base }

func betas(b1, b2 float64) Arg {
	return Arg{Name: "betas", Kind: KindTuple, TupleLen: 2, Default: []any{b1, b2}}
}

func float(name string, def float64) Arg { return Arg{Name: name, Kind: KindFloat, Default: def} }

func flag(name string, def bool) Arg { return Arg{Name: name, Kind: KindBool, Default: def} }

// Builtin returns a registry holding the bundled optimizer catalog.
func Builtin() *Registry {
	r := New()
	for _, spec := range catalog() {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

func catalog() []Spec {
	return []Spec{
		define[SGD]("sgd", "Stochastic gradient descent with optional momentum.", Signature{
			float("lr", 1e-3), float("momentum", 0), float("dampening", 0),
			float("weight_decay", 0), flag("nesterov", false),
		}),
		define[Adam]("adam", "Adaptive moment estimation with bias correction.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("eps", 1e-8),
			float("weight_decay", 0), flag("amsgrad", false),
		}),
		define[AdamW]("adamw", "Adam with decoupled weight decay.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("eps", 1e-8),
			float("weight_decay", 1e-2), flag("amsgrad", false),
		}),
		define[AdamP]("adamp", "Adam that slows the growth of scale-invariant weights.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("weight_decay", 0),
			float("delta", 0.1), float("wd_ratio", 0.1), flag("nesterov", false),
			flag("adanorm", false), flag("adam_debias", false), float("eps", 1e-8),
		}),
		define[AdaBelief]("adabelief", "Adapts the step size by the belief in the observed gradient.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("weight_decay", 0),
			flag("weight_decouple", true), flag("fixed_decay", false), flag("rectify", false),
			flag("degenerated_to_sgd", true), flag("ams_bound", false), float("r", 0.95),
			flag("adanorm", false), flag("adam_debias", false), float("eps", 1e-16),
		}),
		define[AdaBound]("adabound", "Adam with dynamic bounds that converge to SGD.", Signature{
			float("lr", 1e-3), float("final_lr", 1e-1), betas(0.9, 0.999), float("gamma", 1e-3),
			float("weight_decay", 0), flag("weight_decouple", true), flag("fixed_decay", false),
			flag("ams_bound", false), flag("adam_debias", false), float("eps", 1e-8),
		}),
		define[A2Grad]("a2grad", "Optimal adaptive and accelerated stochastic gradient descent.", Signature{
			float("beta", 10.0), float("lips", 10.0), float("rho", 0.5),
			{Name: "variant", Kind: KindString, Default: "uni", Choices: []string{"uni", "inc", "exp"}},
		}),
		define[RAdam]("radam", "Adam with a rectified adaptive learning rate.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("weight_decay", 0),
			flag("weight_decouple", false), flag("fixed_decay", false), float("n_sma_threshold", 5),
			flag("degenerated_to_sgd", false), float("eps", 1e-8),
		}),
		define[Lamb]("lamb", "Layer-wise adaptive moments for large batch training.", Signature{
			float("lr", 1e-3), betas(0.9, 0.999), float("weight_decay", 0),
			flag("grad_averaging", true), float("max_grad_norm", 1.0), flag("adam", false),
			flag("pre_norm", false), float("eps", 1e-6),
		}),
		define[Lion]("lion", "Sign-based momentum optimizer discovered by program search.", Signature{
			float("lr", 1e-4), betas(0.9, 0.99), float("weight_decay", 0),
			flag("weight_decouple", true), flag("use_gc", false),
		}),
		define[Prodigy]("prodigy", "Parameter-free adaptive learning rate estimation.", Signature{
			float("lr", 1.0), betas(0.9, 0.999), float("d0", 1e-6), float("d_coef", 1.0),
			float("weight_decay", 0), flag("weight_decouple", true), flag("bias_correction", false),
			flag("safeguard_warmup", false), float("eps", 1e-8),
		}),
	}
}

func define[T any, P optimizerPtr[T]](name, summary string, sig Signature) Spec {
	return Spec{
		Name:        name,
		Summary:     summary,
		Type:        reflect.TypeOf((*T)(nil)).Elem(),
		Signature:   sig,
		Constructor: newConstructor[T, P](name, sig),
	}
}

func newConstructor[T any, P optimizerPtr[T]](name string, sig Signature) Constructor {
	return func(params []model.Parameter, config model.Params) (Optimizer, error) {
		if len(params) == 0 {
			return nil, ErrEmptyParameters
		}
		hyper, err := sig.Bind(config)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if lr, ok := hyper.Float("lr"); ok && lr < 0 {
			return nil, fmt.Errorf("%s: %w: invalid learning rate %v", name, ErrInvalidArguments, lr)
		}

		opt := P(new(T))
		opt.init(base{
			name:   name,
			params: append([]model.Parameter(nil), params...),
			hyper:  hyper,
		})
		return opt, nil
	}
}
