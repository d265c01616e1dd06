// Package remote carries proxied calls between containers over HTTP.
//
// A Server exposes a container: every POST to /v1/calls is decoded into a
// bindr.Call and served with bindr.Dispatch. A Client is a
// bindr.ProxyHandler that sends calls to a Server:
//
//	// process A
//	c := bindr.New()
//	bindr.For[Model](c).CreateSelf()
//	go remote.ListenAndServe(ctx, c, cfg)
//
//	// process B
//	c := bindr.New()
//	bindr.For[Model](c).AsProxy(newRemoteModel)
//	c.ProxyTo(remote.NewClient("http://a:8765").Handle)
//
// Arguments and results travel as JSON. Results come back as a Result,
// which bindr.Decode turns into the expected Go type.
package remote
