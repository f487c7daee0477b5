package dispatch

// Interceptor wraps every dispatch. Before may replace the intent or cancel
// the dispatch by returning (nil, nil); After, when present, observes the
// final result after successful completion. Order determines execution
// order ascending; ties keep insertion order.
type Interceptor interface {
	ID() string
	Order() int
	Before(intent Intent) (*Intent, error)
	After(result any) error
}

// postExecuteAware is an optional extension an Interceptor may implement to
// act between a successful Execute and event publication — before any
// subscriber observes the operation's events. Only the idempotency
// interceptor currently uses this, to clear a no-resetOn key before other
// After interceptors and before subscribers react.
type postExecuteAware interface {
	postExecute(intent Intent, result any)
}

// BaseInterceptor gives Interceptor implementations a default no-op After
// so most interceptors only need to implement Before.
type BaseInterceptor struct{}

func (BaseInterceptor) After(any) error { return nil }

// FuncInterceptor adapts a plain before/after function pair to Interceptor.
type FuncInterceptor struct {
	Id        string
	OrderVal  int
	BeforeFn  func(Intent) (*Intent, error)
	AfterFn   func(any) error
}

func (f *FuncInterceptor) ID() string    { return f.Id }
func (f *FuncInterceptor) Order() int    { return f.OrderVal }

func (f *FuncInterceptor) Before(intent Intent) (*Intent, error) {
	if f.BeforeFn == nil {
		return &intent, nil
	}
	return f.BeforeFn(intent)
}

func (f *FuncInterceptor) After(result any) error {
	if f.AfterFn == nil {
		return nil
	}
	return f.AfterFn(result)
}
