// Package webhelper provides a typed JSON HTTP client with cloud-provider
// authentication headers.
//
// A Client keeps a set of custom headers and a reference to a
// cloudauth.Config. Every call rebuilds the outgoing header set from scratch
// (auth header first, then the custom headers), encodes the body as JSON,
// dispatches through an httpclient.Transport and, unless AllowFailure is
// given, turns a non-2xx status into *StatusError.
//
//	auth := &cloudauth.Config{Provider: cloudauth.ProviderGCP, Key: token}
//	c, _ := webhelper.New(httpclient.NewRestyTransport(httpclient.TransportOptions{BaseURL: base}), auth)
//	users, err := webhelper.Get[[]User](ctx, c, "/users")
//
// Failures are typed: *StatusError, *TransportError, *DecodeError, and the
// context's own error on cancellation (see IsCancelled). Nothing is retried.
package webhelper
