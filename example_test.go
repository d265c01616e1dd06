package bindr_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/junioryono/bindr"
)

type Notifier interface {
	Notify(msg string) string
}

type consoleNotifier struct{}

func (consoleNotifier) Notify(msg string) string { return "console: " + msg }

var notifierType = bindr.MarkVirtual(func(*bindr.Context, ...any) (Notifier, error) {
	return consoleNotifier{}, nil
})

type slackNotifier struct {
	Notifier
}

func (n slackNotifier) Notify(msg string) string {
	return "slack: " + msg + " | " + n.Notifier.Notify(msg)
}

func ExampleMarkVirtual() {
	c := bindr.New()

	n, _ := notifierType.New(c)
	fmt.Println(n.Notify("deployed"))

	bindr.OverrideIn(c, notifierType, func(ctx *bindr.Context, args ...any) (Notifier, error) {
		base, err := notifierType.New(ctx, args...)
		if err != nil {
			return nil, err
		}
		return slackNotifier{Notifier: base}, nil
	})

	n, _ = notifierType.New(c)
	fmt.Println(n.Notify("deployed"))
	// Output:
	// console: deployed
	// slack: deployed | console: deployed
}

type visitCounter struct {
	n int
}

func ExampleFor() {
	c := bindr.New()
	bindr.For[*visitCounter](c).CreateSelf().Singleton()

	a := bindr.MustInject[*visitCounter](c)
	b := bindr.MustInject[*visitCounter](c)
	a.n++
	b.n++

	fmt.Println(a == b, a.n)
	// Output: true 2
}

type Quoter interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

type fixedQuoter struct{}

func (fixedQuoter) Quote(_ context.Context, symbol string) (float64, error) {
	if symbol == "" {
		return 0, errors.New("empty symbol")
	}
	return 101.5, nil
}

type remoteQuoter struct {
	s *bindr.Stub
}

func (q remoteQuoter) Quote(ctx context.Context, symbol string) (float64, error) {
	return bindr.Decode[float64](q.s.Invoke(ctx, "Quote", symbol))
}

func ExampleLocalHandler() {
	pricing := bindr.New()
	bindr.For[Quoter](pricing).Return(fixedQuoter{})

	app := bindr.New().ProxyTo(bindr.LocalHandler(pricing))
	bindr.For[Quoter](app).AsProxy(func(s *bindr.Stub) Quoter { return remoteQuoter{s: s} })

	q := bindr.MustInject[Quoter](app)

	price, err := q.Quote(context.Background(), "ACME")
	fmt.Println(price, err)

	_, err = q.Quote(context.Background(), "")
	fmt.Println(err)
	// Output:
	// 101.5 <nil>
	// empty symbol
}

func ExampleContainer_Invoke() {
	c := bindr.New()
	bindr.For[Quoter](c).Return(fixedQuoter{})

	err := c.Invoke(func(q Quoter) error {
		price, err := q.Quote(context.Background(), "ACME")
		if err != nil {
			return err
		}
		fmt.Printf("%.2f\n", price)
		return nil
	})
	fmt.Println(err)
	// Output:
	// 101.50
	// <nil>
}

func ExampleNewModule() {
	pricing := bindr.NewModule("pricing",
		bindr.Instance[Quoter](fixedQuoter{}),
	)

	c := bindr.New()
	if err := c.Install(pricing); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(c.Names())
	// Output: [bindr_test.Quoter]
}
