package node

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stubNode struct {
	router *gin.Engine
}

func (s stubNode) NodeID() string          { return "stub" }
func (s stubNode) Kind() string            { return "test" }
func (s stubNode) HTTPRouter() *gin.Engine { return s.router }

func TestServeStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, stubNode{router: gin.New()}, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	err = Serve(context.Background(), stubNode{router: gin.New()}, ln.Addr().String())
	if err == nil {
		t.Fatalf("expected address-in-use error")
	}
}
