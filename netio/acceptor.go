// Package netio is the driver's TCP front door: it accepts raw
// connections, multiplexes each into smux streams, and dispatches every
// stream to the line-oriented command handler in echo.go. It is the
// thinnest possible transport — no telnet option negotiation, no framing
// beyond smux's own — left for the game layer to build on.
package netio

import (
	"context"
	"net"
	"sync"

	"github.com/xtaci/smux"

	"github.com/fluffybytesoftware/fluffymud/logging"
)

// Acceptor listens on a single TCP address and hands every accepted
// connection to smux, serving each resulting stream with Handler.
type Acceptor struct {
	listener net.Listener
	handler  Handler

	wg sync.WaitGroup
}

// Handler processes one multiplexed stream to completion.
type Handler func(ctx context.Context, stream *smux.Stream)

// Listen binds addr and returns an Acceptor ready for Serve.
func Listen(addr string, handler Handler) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Acceptor{listener: ln, handler: handler}, nil
}

// Serve accepts connections until ctx is cancelled or the listener errors.
// It blocks; call it from its own goroutine. Every in-flight stream is
// allowed to finish before Serve returns.
func (a *Acceptor) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.listener.Close()
	}()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				a.wg.Wait()
				return nil
			default:
				return err
			}
		}

		a.wg.Add(1)
		go a.serveConn(ctx, conn)
	}
}

func (a *Acceptor) serveConn(ctx context.Context, conn net.Conn) {
	defer a.wg.Done()

	sess, err := smux.Server(conn, nil)
	if err != nil {
		logging.L.Error(err).WithField("remote", conn.RemoteAddr().String()).
			WithMessage("smux session negotiation failed").Write()
		conn.Close()
		return
	}
	defer sess.Close()

	go func() {
		<-ctx.Done()
		sess.Close()
	}()

	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer stream.Close()
			a.handler(ctx, stream)
		}()
	}
}

// Addr returns the acceptor's bound address.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}
