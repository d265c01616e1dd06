package bindr_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/junioryono/bindr"
	"github.com/junioryono/bindr/internal/testutil"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDivideByZero = errors.New("divide by zero")

type Calc interface {
	Add(ctx context.Context, a, b int) (int, error)
	Div(ctx context.Context, a, b int) (int, error)
}

type localCalc struct {
	release chan struct{}
}

func (c *localCalc) Add(_ context.Context, a, b int) (int, error) { return a + b, nil }

func (c *localCalc) Div(_ context.Context, a, b int) (int, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}

// Wait blocks until release is closed.
func (c *localCalc) Wait() {
	<-c.release
}

func (c *localCalc) Explode() {
	panic("calculator on fire")
}

// remoteCalc forwards Calc calls through a stub.
type remoteCalc struct {
	s *bindr.Stub
}

func (r remoteCalc) Add(ctx context.Context, a, b int) (int, error) {
	return bindr.Decode[int](r.s.Invoke(ctx, "Add", a, b))
}

func (r remoteCalc) Div(ctx context.Context, a, b int) (int, error) {
	return bindr.Decode[int](r.s.Invoke(ctx, "Div", a, b))
}

// calcPair returns a serving container with a Calc and a client container
// proxying Calc to it. adapts counts adapter executions.
func calcPair(t *testing.T) (server, client *bindr.Container, adapts *int) {
	t.Helper()

	server, _ = testutil.NewContainer(t)
	calc := &localCalc{release: make(chan struct{})}
	bindr.For[Calc](server).Return(calc)
	t.Cleanup(func() { close(calc.release) })

	client, _ = testutil.NewContainer(t)
	n := 0
	bindr.For[Calc](client).AsProxy(func(s *bindr.Stub) Calc {
		n++
		return remoteCalc{s: s}
	})
	client.ProxyTo(bindr.LocalHandler(server))

	return server, client, &n
}

func TestProxy_RoundTrip(t *testing.T) {
	_, client, adapts := calcPair(t)
	ctx := context.Background()

	calc := testutil.MustInject[Calc](t, client)
	sum, err := calc.Add(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)

	again := testutil.MustInject[Calc](t, client)
	assert.Equal(t, calc, again)
	assert.Equal(t, 1, *adapts, "the stand-in is built once")

	_, err = calc.Div(ctx, 1, 0)
	assert.Same(t, errDivideByZero, err, "method errors pass through unchanged")
}

func TestProxy_NotConfigured(t *testing.T) {
	c, _ := testutil.NewContainer(t)
	bindr.For[Calc](c).AsProxy(func(s *bindr.Stub) Calc { return remoteCalc{s: s} })

	_, err := bindr.Inject[Calc](c)
	require.Error(t, err)
	assert.True(t, bindr.IsProxyNotConfigured(err))

	var pe *bindr.ProxyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bindr_test.Calc", pe.Name)
	assert.Contains(t, err.Error(), "ProxyTo")
}

func TestProxy_HandlerReadAtCallTime(t *testing.T) {
	_, client, _ := calcPair(t)
	ctx := context.Background()

	calc := testutil.MustInject[Calc](t, client)

	client.ProxyTo(nil)
	_, err := calc.Add(ctx, 1, 1)
	assert.True(t, bindr.IsProxyNotConfigured(err))

	client.ProxyTo(func(_ context.Context, call *bindr.Call) (any, error) {
		return 42, nil
	})
	sum, err := calc.Add(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 42, sum)
}

func TestProxy_CallIdentity(t *testing.T) {
	c, _ := testutil.NewContainer(t)

	var calls []*bindr.Call
	c.ProxyTo(func(_ context.Context, call *bindr.Call) (any, error) {
		calls = append(calls, call)
		return 0, nil
	})
	bindr.For[Calc](c).Named("calc").AsProxy(func(s *bindr.Stub) Calc { return remoteCalc{s: s} })

	calc := testutil.MustInject[Calc](t, c)
	_, err := calc.Add(context.Background(), 1, 2)
	require.NoError(t, err)
	_, err = calc.Add(context.Background(), 3, 4)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, "calc", calls[0].Type)
	assert.Equal(t, "Add", calls[0].Method)
	assert.Equal(t, []any{1, 2}, calls[0].Args)

	_, err = ulid.Parse(calls[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
}

func TestProxy_NamedAfterFirstRegistration(t *testing.T) {
	c, _ := testutil.NewContainer(t)

	var types []string
	c.ProxyTo(func(_ context.Context, call *bindr.Call) (any, error) {
		types = append(types, call.Type)
		return 0, nil
	})

	adapt := func(s *bindr.Stub) Calc { return remoteCalc{s: s} }
	bindr.For[Calc](c).AsProxy(adapt)
	bindr.For[Calc](c).Named("pricing.calc").AsProxy(adapt)

	calc := testutil.MustInject[Calc](t, c)
	_, err := calc.Add(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"pricing.calc"}, types)
	assert.Contains(t, c.Names(), "pricing.calc")
	assert.Contains(t, c.Names(), "bindr_test.Calc")
}

type Pinger interface {
	Ping() string
}

func TestProxy_BareStub(t *testing.T) {
	c, _ := testutil.NewContainer(t)
	c.ProxyTo(func(_ context.Context, call *bindr.Call) (any, error) {
		return call.Method + "!", nil
	})
	require.NoError(t, c.RegisterAsProxy(reflect.TypeFor[Pinger](), nil))

	v, err := bindr.InjectByName(c, "bindr_test.Pinger")
	require.NoError(t, err)

	stub, ok := v.(*bindr.Stub)
	require.True(t, ok)
	assert.Equal(t, "bindr_test.Pinger", stub.Type())
	assert.Equal(t, reflect.TypeFor[Pinger](), stub.ReflectType())

	got, err := bindr.Decode[string](stub.Invoke(nil, "Ping"))
	require.NoError(t, err)
	assert.Equal(t, "Ping!", got)

	ping := stub.Get("Ping")
	got, err = bindr.Decode[string](ping(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, "Ping!", got)
}

func TestProxy_AdapterMismatch(t *testing.T) {
	c, _ := testutil.NewContainer(t)
	c.ProxyTo(func(context.Context, *bindr.Call) (any, error) { return nil, nil })
	require.NoError(t, c.RegisterAsProxy(reflect.TypeFor[Calc](), func(s *bindr.Stub) any {
		return s
	}))

	_, err := bindr.Inject[Calc](c)
	var tm *bindr.TypeMismatchError
	assert.ErrorAs(t, err, &tm)
}

func TestStub_GoAndAwait(t *testing.T) {
	c, _ := testutil.NewContainer(t)
	c.ProxyTo(func(_ context.Context, call *bindr.Call) (any, error) {
		return call.Args[0].(int) * 2, nil
	})
	require.NoError(t, c.RegisterAsProxy(reflect.TypeFor[Pinger](), nil))

	v, err := bindr.InjectByName(c, "bindr_test.Pinger")
	require.NoError(t, err)
	stub := v.(*bindr.Stub)

	ctx := context.Background()
	n, err := bindr.Await[int](ctx, stub.Go(ctx, "Double", 21))
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	t.Run("ctx ends first", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := bindr.Await[int](ctx, make(chan bindr.Result))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type jsonResult json.RawMessage

func (r jsonResult) Decode(v any) error {
	return json.Unmarshal(r, v)
}

func TestDecode(t *testing.T) {
	n, err := bindr.Decode[int](jsonResult(`7`), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = bindr.Decode[int](jsonResult(`"seven"`), nil)
	assert.Error(t, err)

	_, err = bindr.Decode[int](nil, testutil.ErrBoom)
	assert.Same(t, testutil.ErrBoom, err)

	_, err = bindr.Decode[int]("seven", nil)
	var tm *bindr.TypeMismatchError
	assert.ErrorAs(t, err, &tm)

	s, err := bindr.Decode[*localCalc](nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestDispatch(t *testing.T) {
	server, _, _ := calcPair(t)
	ctx := context.Background()

	t.Run("calls the method", func(t *testing.T) {
		v, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Add", Args: []any{20, 22}})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("numeric arguments are converted", func(t *testing.T) {
		v, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Add", Args: []any{1.0, int64(2)}})
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("method error is returned unchanged", func(t *testing.T) {
		_, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Div", Args: []any{1, 0}})
		assert.Same(t, errDivideByZero, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Mul"})
		var de *bindr.DispatchError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Mul", de.Method)
		assert.ErrorIs(t, err, bindr.ErrMethodNotFound)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "nowhere.Thing", Method: "Add"})
		assert.True(t, bindr.IsNotRegistered(err))
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Add", Args: []any{"x", 1}})
		assert.ErrorIs(t, err, bindr.ErrBadArguments)

		_, err = bindr.Dispatch(ctx, server, &bindr.Call{Type: "bindr_test.Calc", Method: "Add", Args: []any{1}})
		assert.ErrorIs(t, err, bindr.ErrBadArguments)
	})

	t.Run("nil call", func(t *testing.T) {
		_, err := bindr.Dispatch(ctx, server, nil)
		assert.ErrorIs(t, err, bindr.ErrBadArguments)
	})
}

func TestLocalHandler(t *testing.T) {
	server, _, _ := calcPair(t)
	handle := bindr.LocalHandler(server)

	t.Run("stops waiting when ctx ends", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := handle(ctx, &bindr.Call{Type: "bindr_test.Calc", Method: "Wait"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("recovers panics", func(t *testing.T) {
		_, err := handle(context.Background(), &bindr.Call{Type: "bindr_test.Calc", Method: "Explode"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "calculator on fire")
	})
}

type proxyObserver struct {
	bindr.BaseObserver
	calls []string
	errs  []error
}

func (o *proxyObserver) OnProxyCall(call *bindr.Call, _ time.Duration, err error) {
	o.calls = append(o.calls, call.Method)
	o.errs = append(o.errs, err)
}

func TestProxy_Observed(t *testing.T) {
	obs := &proxyObserver{}
	c, hook := testutil.NewContainer(t, bindr.WithObserver(obs))

	server, _ := testutil.NewContainer(t)
	bindr.For[Calc](server).Return(&localCalc{})
	c.ProxyTo(bindr.LocalHandler(server))
	bindr.For[Calc](c).AsProxy(func(s *bindr.Stub) Calc { return remoteCalc{s: s} })

	calc := testutil.MustInject[Calc](t, c)
	_, _ = calc.Add(context.Background(), 1, 1)
	_, _ = calc.Div(context.Background(), 1, 0)

	assert.Equal(t, []string{"Add", "Div"}, obs.calls)
	assert.NoError(t, obs.errs[0])
	assert.ErrorIs(t, obs.errs[1], errDivideByZero)

	testutil.AssertLogged(t, hook, logrus.DebugLevel, "bindr: proxy call")
}
