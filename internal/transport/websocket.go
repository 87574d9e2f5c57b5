package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	AttachPath    = "/attach"
	SessionHeader = "X-Livetree-Session"

	closeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	// the viewer is not a browser
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsLink struct {
	conn *websocket.Conn
	wmu  sync.Mutex
	once sync.Once
}

func NewWebsocketLink(conn *websocket.Conn) Link {
	return &wsLink{conn: conn}
}

func (l *wsLink) WriteFrame(ctx context.Context, frame []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return l.mapErr(err)
	}
	return l.mapErr(l.conn.WriteMessage(websocket.BinaryMessage, frame))
}

func (l *wsLink) ReadFrame(ctx context.Context) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return nil, l.mapErr(err)
	}

	for {
		typ, data, err := l.conn.ReadMessage()
		if err != nil {
			return nil, l.mapErr(err)
		}
		if typ == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (l *wsLink) Close() error {
	var err error
	l.once.Do(func() {
		l.wmu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		l.wmu.Unlock()
		err = l.conn.Close()
	})
	return err
}

func (l *wsLink) mapErr(err error) error {
	if err == nil {
		return nil
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) || errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}

// AttachHandler upgrades the request to a websocket and attaches it as the client.
// A second client is refused with 409 while one is attached.
func (s *Server) AttachHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.attached.CompareAndSwap(false, true) {
			s.metrics.refused()
			http.Error(w, ErrBusy.Error(), http.StatusConflict)
			return
		}

		sessionID := newSessionID()
		header := http.Header{}
		header.Set(SessionHeader, sessionID)

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			s.attached.Store(false)
			log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}

		s.attach(NewWebsocketLink(conn), sessionID)
	}
}

// Dial connects to a server's attach endpoint and returns the link and the session id
func Dial(ctx context.Context, addr string) (Link, string, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: AttachPath}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, "", fmt.Errorf("dial %s: %w", u.String(), ErrBusy)
		}
		return nil, "", fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return NewWebsocketLink(conn), resp.Header.Get(SessionHeader), nil
}
