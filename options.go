package packetbus

import "time"

// RouterOption configures a Router.
type RouterOption func(*routerOptions)

type routerOptions struct {
	tracer        Tracer
	ingressBuffer int
}

func routerDefaults() routerOptions {
	return routerOptions{
		tracer:        NopTracer(),
		ingressBuffer: defaultIngressBuffer,
	}
}

// WithTracer sets the Tracer receiving the Router's routing events.
func WithTracer(t Tracer) RouterOption {
	return func(o *routerOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithIngressBuffer sets the capacity of the ingress channel feeding the
// dispatch goroutine.
func WithIngressBuffer(n int) RouterOption {
	return func(o *routerOptions) {
		if n > 0 {
			o.ingressBuffer = n
		}
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	timeout time.Duration
}

func requestDefaults() requestOptions {
	return requestOptions{
		timeout: DefaultRequestTimeout,
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}
